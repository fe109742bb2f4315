package summary_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"metachat.app/studio/internal/model"
	"metachat.app/studio/internal/relay"
	"metachat.app/studio/internal/summary"
)

type mockLister struct {
	listAllFn func(ctx context.Context) ([]model.Message, error)
}

func (m *mockLister) ListAll(ctx context.Context) ([]model.Message, error) {
	return m.listAllFn(ctx)
}

type mockSummarizer struct {
	summarizeFn func(ctx context.Context, transcript string) (string, error)
}

func (m *mockSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	return m.summarizeFn(ctx, transcript)
}

func (m *mockSummarizer) Model() string { return "test-model" }

type mockPublisher struct {
	publishFn func(ctx context.Context, env relay.Envelope) error
}

func (m *mockPublisher) Publish(ctx context.Context, env relay.Envelope) error {
	return m.publishFn(ctx, env)
}

func (m *mockPublisher) Close() error { return nil }

var _ = Describe("Pipeline", func() {
	var (
		state     *summary.State
		lister    *mockLister
		published chan relay.Envelope
		publisher *mockPublisher
	)

	BeforeEach(func() {
		state = summary.NewState()
		lister = &mockLister{
			listAllFn: func(ctx context.Context) ([]model.Message, error) {
				return []model.Message{
					{ID: 1, AuthorIdentity: "Anonymous", Content: "hello"},
				}, nil
			},
		}
		published = make(chan relay.Envelope, 8)
		publisher = &mockPublisher{
			publishFn: func(ctx context.Context, env relay.Envelope) error {
				published <- env
				return nil
			},
		}
	})

	Describe("Trigger", func() {
		It("commits and publishes the summarizer result", func() {
			summarizer := &mockSummarizer{
				summarizeFn: func(ctx context.Context, transcript string) (string, error) {
					Expect(transcript).To(Equal("Anonymous: hello"))
					return "Someone said hello.", nil
				},
			}
			pipeline := summary.NewPipeline(state, lister, summarizer, publisher)

			pipeline.Trigger(context.Background())

			var env relay.Envelope
			Eventually(published).Should(Receive(&env))
			summaryEnv, ok := env.(relay.SummaryEnvelope)
			Expect(ok).To(BeTrue())
			Expect(summaryEnv.Text).To(Equal("Someone said hello."))
			Expect(summaryEnv.Version).To(BeNumerically(">", 0))

			snap := state.Snapshot()
			Expect(snap.Text).To(Equal("Someone said hello."))
			Expect(snap.Version).To(Equal(summaryEnv.Version))
		})

		It("does nothing when no summarizer is configured", func() {
			calls := atomic.Int32{}
			lister.listAllFn = func(ctx context.Context) ([]model.Message, error) {
				calls.Add(1)
				return nil, nil
			}
			pipeline := summary.NewPipeline(state, lister, nil, publisher)

			Expect(pipeline.Enabled()).To(BeFalse())
			pipeline.Trigger(context.Background())

			Consistently(published).ShouldNot(Receive())
			Expect(calls.Load()).To(BeZero())
			Expect(state.Snapshot().Version).To(BeZero())
		})

		It("cancels the superseded in-flight attempt", func() {
			firstStarted := make(chan struct{})
			firstCancelled := make(chan struct{})
			summarizer := &mockSummarizer{}
			first := true
			summarizer.summarizeFn = func(ctx context.Context, transcript string) (string, error) {
				if first {
					first = false
					close(firstStarted)
					<-ctx.Done()
					close(firstCancelled)
					return "", ctx.Err()
				}
				return "the latest word", nil
			}
			pipeline := summary.NewPipeline(state, lister, summarizer, publisher)

			pipeline.Trigger(context.Background())
			Eventually(firstStarted).Should(BeClosed())

			pipeline.Trigger(context.Background())
			Eventually(firstCancelled).Should(BeClosed())

			var env relay.Envelope
			Eventually(published).Should(Receive(&env))
			Expect(env.(relay.SummaryEnvelope).Text).To(Equal("the latest word"))

			// Only the winning attempt may publish.
			Consistently(published).ShouldNot(Receive())
		})

		It("lets the newest attempt survive concurrent triggers", func() {
			summarizer := &mockSummarizer{
				summarizeFn: func(ctx context.Context, transcript string) (string, error) {
					if err := ctx.Err(); err != nil {
						return "", err
					}
					return "latest", nil
				},
			}
			pipeline := summary.NewPipeline(state, lister, summarizer, publisher)

			const triggers = 8
			var wg sync.WaitGroup
			for i := 0; i < triggers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					pipeline.Trigger(context.Background())
				}()
			}
			wg.Wait()

			// The attempt holding the highest token is never the one
			// cancelled, so it always commits.
			Eventually(func() int64 {
				return state.Snapshot().Version
			}).Should(Equal(int64(triggers)))
		})

		It("leaves the summary unchanged when the summarizer fails", func() {
			summarizer := &mockSummarizer{
				summarizeFn: func(ctx context.Context, transcript string) (string, error) {
					return "", errors.New("upstream overloaded")
				},
			}
			pipeline := summary.NewPipeline(state, lister, summarizer, publisher)

			pipeline.Trigger(context.Background())

			Consistently(published).ShouldNot(Receive())
			Expect(state.Snapshot().Text).To(Equal(summary.EmptyText))
		})

		It("leaves the summary unchanged when listing messages fails", func() {
			lister.listAllFn = func(ctx context.Context) ([]model.Message, error) {
				return nil, errors.New("pool closed")
			}
			summarized := atomic.Int32{}
			summarizer := &mockSummarizer{
				summarizeFn: func(ctx context.Context, transcript string) (string, error) {
					summarized.Add(1)
					return "unreachable", nil
				},
			}
			pipeline := summary.NewPipeline(state, lister, summarizer, publisher)

			pipeline.Trigger(context.Background())

			Consistently(published).ShouldNot(Receive())
			Expect(summarized.Load()).To(BeZero())
			Expect(state.Snapshot().Version).To(BeZero())
		})
	})
})
