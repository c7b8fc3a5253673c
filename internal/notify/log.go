package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/verification-api/pkg/logger"
)

// LogNotifier only logs; used when a transport is disabled (local development, tests).
type LogNotifier struct {
	transport string
}

func NewLogNotifier(transport string) *LogNotifier {
	return &LogNotifier{transport: transport}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	logger.Log.WithFields(logrus.Fields{
		"transport": n.transport,
		"to":        msg.To,
		"theme":     msg.Theme,
	}).Info("[LogNotifier] noop send")
	return nil
}
