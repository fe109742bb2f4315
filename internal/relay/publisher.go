package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Publisher fans an envelope out to every subscribed instance. Delivery
// is at-least-once with no ordering guarantee between concurrent
// publishers; consumers reconcile using the key embedded in the payload.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

type redisPublisher struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisPublisher(client *redis.Client, channel string, logger *slog.Logger) Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisPublisher{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (p *redisPublisher) Publish(ctx context.Context, env Envelope) error {
	payload, err := Encode(env)
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.channel, err)
	}

	p.logger.DebugContext(ctx, "envelope published", "channel", p.channel, "kind", env.envelopeKind())
	return nil
}

func (p *redisPublisher) Close() error {
	return p.client.Close()
}
