package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"metachat.app/studio/common/logger"
	"metachat.app/studio/internal/model"
	"metachat.app/studio/internal/relay"
	"metachat.app/studio/internal/summary"
)

// DefaultAuthor labels messages created without an explicit identity.
const DefaultAuthor = "Anonymous"

var ErrEmptyContent = errors.New("content is required")

type CreateMessageParams struct {
	Content        string
	AuthorIdentity string
}

// SummaryTrigger kicks off an asynchronous summary recomputation.
type SummaryTrigger interface {
	Trigger(ctx context.Context)
}

// ChatService is the synchronous request surface: list, create, current
// summary, clear. Message creation either fully commits and returns the
// message or returns an error — summarization outcome is never part of
// that response.
type ChatService interface {
	CreateMessage(ctx context.Context, params CreateMessageParams) (*model.Message, error)
	ListMessages(ctx context.Context) ([]model.Message, error)
	Summary(ctx context.Context) model.SummarySnapshot
	ClearAll(ctx context.Context) error
}

type chatService struct {
	stores    StoreProvider
	txRunner  TxRunner
	publisher relay.Publisher
	state     *summary.State
	pipeline  SummaryTrigger
	logger    *slog.Logger
}

func NewChatService(stores StoreProvider, txRunner TxRunner, publisher relay.Publisher, state *summary.State, pipeline SummaryTrigger, log *slog.Logger) ChatService {
	if log == nil {
		log = slog.Default()
	}
	return &chatService{
		stores:    stores,
		txRunner:  txRunner,
		publisher: publisher,
		state:     state,
		pipeline:  pipeline,
		logger:    log,
	}
}

func (s *chatService) CreateMessage(ctx context.Context, params CreateMessageParams) (*model.Message, error) {
	content := strings.TrimSpace(params.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	authorName := strings.TrimSpace(params.AuthorIdentity)
	if authorName == "" {
		authorName = DefaultAuthor
	}

	var msg *model.Message
	if err := s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		author, err := stores.Authors().GetOrCreate(ctx, authorName)
		if err != nil {
			return fmt.Errorf("resolving author: %w", err)
		}

		msg, err = stores.Messages().Create(ctx, author, content)
		if err != nil {
			return fmt.Errorf("appending message: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: logger.Ptr(msg.ID)})

	// The message is durable from here on. A publish failure leaves it
	// committed but not yet broadcast; the outbox retries and consumers
	// dedup by id, so the request itself still succeeds.
	if err := s.publisher.Publish(ctx, relay.MessageEnvelope{
		ID:             msg.ID,
		AuthorIdentity: msg.AuthorIdentity,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}); err != nil {
		s.logger.WarnContext(ctx, "message committed but not broadcast", "error", err)
	}

	// Off the client-facing latency path.
	s.pipeline.Trigger(ctx)

	return msg, nil
}

func (s *chatService) ListMessages(ctx context.Context) ([]model.Message, error) {
	msgs, err := s.stores.Messages().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return msgs, nil
}

func (s *chatService) Summary(ctx context.Context) model.SummarySnapshot {
	return s.state.Snapshot()
}

func (s *chatService) ClearAll(ctx context.Context) error {
	if err := s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		return stores.Messages().DeleteAll(ctx)
	}); err != nil {
		return fmt.Errorf("clearing messages: %w", err)
	}

	// The reset version dominates every summarization attempt initiated
	// before the clear, regardless of when those attempts finish.
	snapshot := s.state.Reset()

	ctx = logger.WithLogFields(ctx, logger.LogFields{SummaryVersion: logger.Ptr(snapshot.Version)})
	if err := s.publisher.Publish(ctx, relay.ResetEnvelope{Version: snapshot.Version}); err != nil {
		s.logger.WarnContext(ctx, "messages cleared but reset not broadcast", "error", err)
	}

	return nil
}
