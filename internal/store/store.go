package store

import (
	"context"
	"errors"

	"metachat.app/studio/core/db/sqlc"
	"metachat.app/studio/internal/model"
)

var ErrNotFound = errors.New("not found")

// AuthorStore persists identity rows. Names are unique; submitting the
// same display name twice resolves to the same author.
type AuthorStore interface {
	GetOrCreate(ctx context.Context, name string) (*model.Author, error)
}

// MessageStore is the append-only ordered message log. The store assigns
// each message a monotonically increasing id at commit time; ListAll
// returns messages in that canonical order.
type MessageStore interface {
	Create(ctx context.Context, author *model.Author, content string) (*model.Message, error)
	ListAll(ctx context.Context) ([]model.Message, error)
	DeleteAll(ctx context.Context) error
}

// Stores aggregates the typed stores over one set of queries, either the
// pool-backed set or a transaction-scoped one.
type Stores struct {
	authors  AuthorStore
	messages MessageStore
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{
		authors:  newAuthorStore(queries),
		messages: newMessageStore(queries),
	}
}

func (s *Stores) Authors() AuthorStore {
	return s.authors
}

func (s *Stores) Messages() MessageStore {
	return s.messages
}
