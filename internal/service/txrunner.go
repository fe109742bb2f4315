package service

import (
	"context"

	"metachat.app/studio/core/db"
	"metachat.app/studio/core/db/sqlc"
	"metachat.app/studio/internal/store"
)

// StoreProvider gives transactional code access to stores bound to the
// same database transaction.
type StoreProvider interface {
	Authors() store.AuthorStore
	Messages() store.MessageStore
}

// TxRunner executes a function within a database transaction, providing
// transaction-scoped stores.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type txRunner struct {
	db *db.DB
}

func NewTxRunner(database *db.DB) TxRunner {
	return &txRunner{db: database}
}

func (r *txRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q *sqlc.Queries) error {
		return fn(store.NewStores(q))
	})
}
