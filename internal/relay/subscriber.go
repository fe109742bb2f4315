package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"metachat.app/studio/common/logger"
)

// Handler receives every envelope delivered on the channel, possibly
// more than once and possibly out of order.
type Handler func(ctx context.Context, env Envelope)

// Subscriber consumes the relay channel and hands decoded envelopes to a
// handler. Broadcast correctness depends on a working subscription, so
// construction fails hard if the subscribe does not confirm.
type Subscriber struct {
	pubsub  *redis.PubSub
	channel string
	handler Handler
}

func NewSubscriber(ctx context.Context, client *redis.Client, channel string, handler Handler) (*Subscriber, error) {
	pubsub := client.Subscribe(ctx, channel)

	// Receive blocks until the server confirms the subscription. Without
	// it this instance would silently miss fan-out traffic.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", channel, err)
	}

	return &Subscriber{
		pubsub:  pubsub,
		channel: channel,
		handler: handler,
	}, nil
}

// Run delivers envelopes until the context is cancelled or the
// subscription closes. Undecodable payloads are logged and skipped.
func (s *Subscriber) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Channel:   logger.Ptr(s.channel),
		Component: "studio.relay.subscriber",
	})

	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("relay subscription closed")
			}

			env, err := Decode([]byte(msg.Payload))
			if err != nil {
				slog.WarnContext(ctx, "skipping undecodable envelope",
					"error", err,
					"payload", logger.Truncate(msg.Payload, 200))
				continue
			}

			s.handler(ctx, env)
		}
	}
}

func (s *Subscriber) Close() error {
	return s.pubsub.Close()
}
