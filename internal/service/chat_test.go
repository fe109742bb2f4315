package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"metachat.app/studio/internal/model"
	"metachat.app/studio/internal/relay"
	"metachat.app/studio/internal/service"
	"metachat.app/studio/internal/store"
	"metachat.app/studio/internal/summary"
)

type mockAuthorStore struct {
	getOrCreateFn func(ctx context.Context, name string) (*model.Author, error)
}

func (m *mockAuthorStore) GetOrCreate(ctx context.Context, name string) (*model.Author, error) {
	return m.getOrCreateFn(ctx, name)
}

type mockMessageStore struct {
	createFn    func(ctx context.Context, author *model.Author, content string) (*model.Message, error)
	listAllFn   func(ctx context.Context) ([]model.Message, error)
	deleteAllFn func(ctx context.Context) error
}

func (m *mockMessageStore) Create(ctx context.Context, author *model.Author, content string) (*model.Message, error) {
	return m.createFn(ctx, author, content)
}

func (m *mockMessageStore) ListAll(ctx context.Context) ([]model.Message, error) {
	return m.listAllFn(ctx)
}

func (m *mockMessageStore) DeleteAll(ctx context.Context) error {
	return m.deleteAllFn(ctx)
}

type mockStores struct {
	authors  *mockAuthorStore
	messages *mockMessageStore
}

func (m *mockStores) Authors() store.AuthorStore   { return m.authors }
func (m *mockStores) Messages() store.MessageStore { return m.messages }

type mockTxRunner struct {
	stores *mockStores
	err    error
}

func (m *mockTxRunner) WithTx(ctx context.Context, fn func(stores service.StoreProvider) error) error {
	if m.err != nil {
		return m.err
	}
	return fn(m.stores)
}

type mockPublisher struct {
	publishFn func(ctx context.Context, env relay.Envelope) error
	published []relay.Envelope
}

func (m *mockPublisher) Publish(ctx context.Context, env relay.Envelope) error {
	m.published = append(m.published, env)
	if m.publishFn != nil {
		return m.publishFn(ctx, env)
	}
	return nil
}

func (m *mockPublisher) Close() error { return nil }

type mockTrigger struct {
	triggers int
}

func (m *mockTrigger) Trigger(ctx context.Context) { m.triggers++ }

var _ = Describe("ChatService", func() {
	var (
		authors   *mockAuthorStore
		messages  *mockMessageStore
		stores    *mockStores
		txRunner  *mockTxRunner
		publisher *mockPublisher
		trigger   *mockTrigger
		state     *summary.State
		svc       service.ChatService
	)

	BeforeEach(func() {
		authors = &mockAuthorStore{
			getOrCreateFn: func(ctx context.Context, name string) (*model.Author, error) {
				return &model.Author{ID: 1, Name: name}, nil
			},
		}
		messages = &mockMessageStore{
			createFn: func(ctx context.Context, author *model.Author, content string) (*model.Message, error) {
				return &model.Message{
					ID:             7,
					AuthorIdentity: author.Name,
					Content:        content,
					CreatedAt:      time.Now(),
				}, nil
			},
			listAllFn: func(ctx context.Context) ([]model.Message, error) {
				return []model.Message{{ID: 1, Content: "hi"}}, nil
			},
			deleteAllFn: func(ctx context.Context) error { return nil },
		}
		stores = &mockStores{authors: authors, messages: messages}
		txRunner = &mockTxRunner{stores: stores}
		publisher = &mockPublisher{}
		trigger = &mockTrigger{}
		state = summary.NewState()
		svc = service.NewChatService(stores, txRunner, publisher, state, trigger, nil)
	})

	Describe("CreateMessage", func() {
		It("commits, publishes, and triggers summarization", func() {
			msg, err := svc.CreateMessage(context.Background(), service.CreateMessageParams{
				Content:        "hello",
				AuthorIdentity: "QuietWren-041",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(msg.ID).To(Equal(int64(7)))
			Expect(msg.AuthorIdentity).To(Equal("QuietWren-041"))

			Expect(publisher.published).To(HaveLen(1))
			env := publisher.published[0].(relay.MessageEnvelope)
			Expect(env.ID).To(Equal(int64(7)))
			Expect(env.Content).To(Equal("hello"))

			Expect(trigger.triggers).To(Equal(1))
		})

		It("rejects empty content", func() {
			for _, content := range []string{"", "   ", "\n\t"} {
				_, err := svc.CreateMessage(context.Background(), service.CreateMessageParams{Content: content})
				Expect(err).To(MatchError(service.ErrEmptyContent))
			}
			Expect(publisher.published).To(BeEmpty())
			Expect(trigger.triggers).To(BeZero())
		})

		It("defaults the author identity", func() {
			var resolved string
			authors.getOrCreateFn = func(ctx context.Context, name string) (*model.Author, error) {
				resolved = name
				return &model.Author{ID: 1, Name: name}, nil
			}

			_, err := svc.CreateMessage(context.Background(), service.CreateMessageParams{Content: "hi"})

			Expect(err).NotTo(HaveOccurred())
			Expect(resolved).To(Equal(service.DefaultAuthor))
		})

		It("succeeds even when the relay publish fails", func() {
			publisher.publishFn = func(ctx context.Context, env relay.Envelope) error {
				return errors.New("relay down")
			}

			msg, err := svc.CreateMessage(context.Background(), service.CreateMessageParams{Content: "hi"})

			Expect(err).NotTo(HaveOccurred())
			Expect(msg).NotTo(BeNil())
			Expect(trigger.triggers).To(Equal(1))
		})

		It("fails without publishing when the transaction fails", func() {
			txRunner.err = errors.New("deadlock detected")

			_, err := svc.CreateMessage(context.Background(), service.CreateMessageParams{Content: "hi"})

			Expect(err).To(MatchError(ContainSubstring("deadlock")))
			Expect(publisher.published).To(BeEmpty())
			Expect(trigger.triggers).To(BeZero())
		})
	})

	Describe("ListMessages", func() {
		It("returns messages in store order", func() {
			msgs, err := svc.ListMessages(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].ID).To(Equal(int64(1)))
		})

		It("wraps store errors", func() {
			messages.listAllFn = func(ctx context.Context) ([]model.Message, error) {
				return nil, errors.New("pool closed")
			}

			_, err := svc.ListMessages(context.Background())
			Expect(err).To(MatchError(ContainSubstring("listing messages")))
		})
	})

	Describe("Summary", func() {
		It("returns the empty placeholder before any commit", func() {
			snap := svc.Summary(context.Background())
			Expect(snap.Text).To(Equal(summary.EmptyText))
			Expect(snap.Version).To(BeZero())
		})

		It("returns the latest committed snapshot", func() {
			v := state.NextVersion()
			_, ok := state.CommitIfLatest("Someone said hi.", v)
			Expect(ok).To(BeTrue())

			snap := svc.Summary(context.Background())
			Expect(snap.Text).To(Equal("Someone said hi."))
			Expect(snap.Version).To(Equal(v))
		})
	})

	Describe("ClearAll", func() {
		It("deletes, resets the summary, and broadcasts the reset", func() {
			v := state.NextVersion()
			_, ok := state.CommitIfLatest("Old chatter.", v)
			Expect(ok).To(BeTrue())

			Expect(svc.ClearAll(context.Background())).To(Succeed())

			snap := state.Snapshot()
			Expect(snap.Text).To(Equal(summary.EmptyText))
			Expect(snap.Version).To(BeNumerically(">", v))

			Expect(publisher.published).To(HaveLen(1))
			env := publisher.published[0].(relay.ResetEnvelope)
			Expect(env.Version).To(Equal(snap.Version))
		})

		It("keeps the summary when the delete fails", func() {
			before := state.Snapshot()
			messages.deleteAllFn = func(ctx context.Context) error {
				return errors.New("pool closed")
			}

			err := svc.ClearAll(context.Background())

			Expect(err).To(MatchError(ContainSubstring("clearing messages")))
			Expect(state.Snapshot()).To(Equal(before))
			Expect(publisher.published).To(BeEmpty())
		})

		It("succeeds even when the reset broadcast fails", func() {
			publisher.publishFn = func(ctx context.Context, env relay.Envelope) error {
				return errors.New("relay down")
			}

			Expect(svc.ClearAll(context.Background())).To(Succeed())
			Expect(state.Snapshot().Text).To(Equal(summary.EmptyText))
		})
	})
})
