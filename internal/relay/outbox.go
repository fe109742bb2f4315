package relay

import (
	"context"
	"log/slog"
	"time"
)

const maxRetryDelay = 30 * time.Second

// Outbox wraps a Publisher with retry. A publish failure after a durable
// store commit leaves a message that is persisted but not yet broadcast;
// the outbox keeps such envelopes and redelivers them with backoff.
// Consumer-side dedup by id/version makes redelivery safe.
//
// The queue is in-process only: envelopes pending at crash time are lost,
// which is within the at-least-once contract (a reconnecting client
// reconciles through the catch-up fetch).
type Outbox struct {
	inner      Publisher
	pending    chan Envelope
	retryDelay time.Duration
	logger     *slog.Logger
}

func NewOutbox(inner Publisher, capacity int, retryDelay time.Duration, logger *slog.Logger) *Outbox {
	if capacity <= 0 {
		capacity = 256
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbox{
		inner:      inner,
		pending:    make(chan Envelope, capacity),
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Publish attempts immediate delivery and queues the envelope for retry
// on failure. It only returns an error when the envelope had to be
// dropped because the queue is full.
func (o *Outbox) Publish(ctx context.Context, env Envelope) error {
	err := o.inner.Publish(ctx, env)
	if err == nil {
		return nil
	}

	select {
	case o.pending <- env:
		o.logger.WarnContext(ctx, "publish failed, envelope queued for retry",
			"error", err, "kind", env.envelopeKind(), "queued", len(o.pending))
		return nil
	default:
		o.logger.ErrorContext(ctx, "publish failed and outbox is full, dropping envelope",
			"error", err, "kind", env.envelopeKind())
		return err
	}
}

// Run redelivers queued envelopes until the context is cancelled. Each
// envelope is retried with exponential backoff until the relay accepts it.
func (o *Outbox) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-o.pending:
			o.redeliver(ctx, env)
		}
	}
}

func (o *Outbox) redeliver(ctx context.Context, env Envelope) {
	delay := o.retryDelay
	for attempt := 1; ; attempt++ {
		err := o.inner.Publish(ctx, env)
		if err == nil {
			o.logger.InfoContext(ctx, "queued envelope redelivered",
				"kind", env.envelopeKind(), "attempt", attempt)
			return
		}
		o.logger.WarnContext(ctx, "redelivery failed",
			"error", err, "kind", env.envelopeKind(), "attempt", attempt, "retry_in", delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}

func (o *Outbox) Close() error {
	return o.inner.Close()
}
