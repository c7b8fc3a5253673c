package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yourusername/verification-api/pkg/logger"
)

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Subscriber streams payloads published to a topic until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)
}

// PubSub is a transport that both publishes and subscribes.
type PubSub interface {
	Publisher
	Subscriber
	Close() error
}

// NoOpPubSub drops every publish; used when no broker is configured.
type NoOpPubSub struct{}

func (p *NoOpPubSub) Publish(ctx context.Context, topic string, payload []byte) error {
	return nil
}

// Subscribe returns a channel that never yields and closes when ctx is done.
func (p *NoOpPubSub) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	ch := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (p *NoOpPubSub) Close() error {
	return nil
}

// RedisPubSub implements PubSub on Redis channels.
type RedisPubSub struct {
	client redis.UniversalClient
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs map[*redis.PubSub]struct{}
}

// NewRedisPubSub wraps an existing client after a ping check.
func NewRedisPubSub(client redis.UniversalClient) (*RedisPubSub, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil for RedisPubSub")
	}

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("provided redis client failed ping check: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RedisPubSub{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[*redis.PubSub]struct{}),
	}, nil
}

func (p *RedisPubSub) Publish(ctx context.Context, topic string, payload []byte) error {
	cmd := p.client.Publish(ctx, topic, payload)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("failed to publish to redis channel %s: %w", topic, err)
	}
	logger.Log.Debugf("[RedisPubSub] published to '%s' (subscribers: %d)", topic, cmd.Val())
	return nil
}

// Subscribe opens a dedicated Redis subscription per caller. The returned
// channel closes when ctx is done, the pubsub is closed, or Redis drops the subscription.
func (p *RedisPubSub) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	sub := p.client.Subscribe(p.ctx, topic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to redis channel %s: %w", topic, err)
	}

	p.mu.Lock()
	p.subs[sub] = struct{}{}
	p.mu.Unlock()

	out := make(chan []byte, 100)
	go func() {
		defer func() {
			p.mu.Lock()
			delete(p.subs, sub)
			p.mu.Unlock()
			_ = sub.Close()
			close(out)
		}()

		redisCh := sub.Channel()
		for {
			select {
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				case <-p.ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			case <-p.ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Close stops all subscriptions. The underlying client is owned by the caller.
func (p *RedisPubSub) Close() error {
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for sub := range p.subs {
		if err := sub.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
