package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/verification-api/internal/events"
	"github.com/yourusername/verification-api/internal/middleware"
	"github.com/yourusername/verification-api/pkg/logger"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 30 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 512
)

// WSHandler streams completion events published on the bus to operator websockets.
type WSHandler struct {
	subscriber events.Subscriber
	topic      string
	upgrader   gorillaws.Upgrader
}

// NewWSHandler builds the handler. An empty allowedOrigins list accepts non-browser clients only.
func NewWSHandler(subscriber events.Subscriber, topic string, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &WSHandler{
		subscriber: subscriber,
		topic:      topic,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if _, ok := allowed[origin]; ok {
					return true
				}
				logger.Log.WithField("origin", origin).Warn("[WSHandler] rejected origin")
				return false
			},
		},
	}
}

// HandleConnection upgrades the request and forwards every payload on the topic as a text frame.
// Auth is done by the route guard before the upgrade.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := h.subscriber.Subscribe(ctx, h.topic)
	if err != nil {
		logger.Log.WithError(err).Error("[WSHandler] subscribe failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Event stream unavailable"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logger.Log.WithError(err).Warn("[WSHandler] upgrade failed")
		return
	}
	defer conn.Close()

	log := logger.Log.WithFields(logrus.Fields{
		"subject": c.GetString(middleware.ContextSubject),
		"remote":  c.ClientIP(),
	})
	log.Info("[WSHandler] stream opened")

	go h.readPump(conn, cancel)
	h.writePump(ctx, conn, stream)
	log.Info("[WSHandler] stream closed")
}

// readPump discards client frames and cancels the stream once the peer goes away.
func (h *WSHandler) readPump(conn *gorillaws.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHandler) writePump(ctx context.Context, conn *gorillaws.Conn, stream <-chan []byte) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = conn.WriteMessage(gorillaws.CloseMessage, gorillaws.FormatCloseMessage(gorillaws.CloseNormalClosure, ""))
			return
		case payload, ok := <-stream:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				_ = conn.WriteMessage(gorillaws.CloseMessage, gorillaws.FormatCloseMessage(gorillaws.CloseGoingAway, "stream ended"))
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(gorillaws.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(gorillaws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
