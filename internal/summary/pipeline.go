package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"metachat.app/studio/common/llm"
	"metachat.app/studio/common/logger"
	"metachat.app/studio/internal/model"
	"metachat.app/studio/internal/relay"
)

const defaultAttemptTimeout = 60 * time.Second

// MessageLister is the slice of the message store the pipeline reads.
type MessageLister interface {
	ListAll(ctx context.Context) ([]model.Message, error)
}

// Pipeline recomputes the running summary after each committed message.
// Each trigger issues a version token, reads the full transcript, calls
// the summarizer, and commits the result only if no later attempt has
// been initiated since. Superseded in-flight calls are cancelled outright
// rather than merely discarded, bounding summarizer spend.
//
// Summary freshness is best-effort enrichment: a failed attempt is
// logged and dropped, never retried.
type Pipeline struct {
	state      *State
	messages   MessageLister
	summarizer llm.Summarizer
	publisher  relay.Publisher
	timeout    time.Duration

	mu         sync.Mutex
	cancelPrev context.CancelFunc
}

func NewPipeline(state *State, messages MessageLister, summarizer llm.Summarizer, publisher relay.Publisher) *Pipeline {
	return &Pipeline{
		state:      state,
		messages:   messages,
		summarizer: summarizer,
		publisher:  publisher,
		timeout:    defaultAttemptTimeout,
	}
}

// Enabled reports whether a summarizer is configured. When it is not,
// Trigger is a no-op and summaries simply never update.
func (p *Pipeline) Enabled() bool {
	return p.summarizer != nil
}

// Trigger starts an asynchronous summarization attempt. It never blocks
// the caller: message broadcast latency is independent of summarization.
func (p *Pipeline) Trigger(ctx context.Context) {
	if !p.Enabled() {
		return
	}

	// The attempt outlives the request that triggered it. Cancelling the
	// previous attempt enforces the single-flight rule: only the
	// highest-token attempt stays live. Token issue and cancel handoff
	// happen under one lock so concurrent triggers cannot register out
	// of order and cancel a newer attempt.
	p.mu.Lock()
	version := p.state.NextVersion()
	attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	if p.cancelPrev != nil {
		p.cancelPrev()
	}
	p.cancelPrev = cancel
	p.mu.Unlock()

	go p.run(attemptCtx, cancel, version)
}

func (p *Pipeline) run(ctx context.Context, cancel context.CancelFunc, version int64) {
	defer cancel()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SummaryVersion: logger.Ptr(version),
		Component:      "studio.summary.pipeline",
	})

	sc := logger.StartSpan(ctx, "studio.summary.attempt")
	defer sc.End()
	ctx = sc.Context()

	msgs, err := p.messages.ListAll(ctx)
	if err != nil {
		sc.RecordError(err)
		slog.WarnContext(ctx, "summary attempt aborted, listing messages failed", "error", err)
		return
	}

	text, err := p.summarizer.Summarize(ctx, Transcript(msgs))
	if err != nil {
		sc.RecordError(err)
		slog.WarnContext(ctx, "summarizer failed, summary unchanged", "error", err)
		return
	}

	snapshot, committed := p.state.CommitIfLatest(text, version)
	if !committed {
		slog.DebugContext(ctx, "summary result superseded, discarding",
			"committed_version", snapshot.Version)
		return
	}

	slog.InfoContext(ctx, "summary committed", "summary", logger.Truncate(text, 120))

	if err := p.publisher.Publish(ctx, relay.SummaryEnvelope{
		Version: snapshot.Version,
		Text:    snapshot.Text,
	}); err != nil {
		slog.WarnContext(ctx, "failed to publish summary envelope", "error", err)
	}
}

// Transcript renders messages as "<authorIdentity>: <content>" lines in
// canonical id order, the exact form the summarizer contract expects.
func Transcript(msgs []model.Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", m.AuthorIdentity, m.Content)
	}
	return b.String()
}
