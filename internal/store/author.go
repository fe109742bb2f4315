package store

import (
	"context"

	"metachat.app/studio/core/db/sqlc"
	"metachat.app/studio/internal/model"
)

type authorStore struct {
	queries *sqlc.Queries
}

func newAuthorStore(queries *sqlc.Queries) AuthorStore {
	return &authorStore{queries: queries}
}

func (s *authorStore) GetOrCreate(ctx context.Context, name string) (*model.Author, error) {
	row, err := s.queries.UpsertIdentity(ctx, name)
	if err != nil {
		return nil, err
	}
	return toAuthorModel(row), nil
}

func toAuthorModel(row sqlc.Identity) *model.Author {
	return &model.Author{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt.Time,
	}
}
