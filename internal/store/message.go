package store

import (
	"context"

	"metachat.app/studio/core/db/sqlc"
	"metachat.app/studio/internal/model"
)

type messageStore struct {
	queries *sqlc.Queries
}

func newMessageStore(queries *sqlc.Queries) MessageStore {
	return &messageStore{queries: queries}
}

func (s *messageStore) Create(ctx context.Context, author *model.Author, content string) (*model.Message, error) {
	row, err := s.queries.CreateMessage(ctx, sqlc.CreateMessageParams{
		IdentityID: author.ID,
		Content:    content,
	})
	if err != nil {
		return nil, err
	}
	return &model.Message{
		ID:             row.ID,
		AuthorIdentity: author.Name,
		Content:        row.Content,
		CreatedAt:      row.CreatedAt.Time,
	}, nil
}

func (s *messageStore) ListAll(ctx context.Context) ([]model.Message, error) {
	rows, err := s.queries.ListMessages(ctx)
	if err != nil {
		return nil, err
	}
	messages := make([]model.Message, len(rows))
	for i, row := range rows {
		messages[i] = model.Message{
			ID:             row.ID,
			AuthorIdentity: row.Name,
			Content:        row.Content,
			CreatedAt:      row.CreatedAt.Time,
		}
	}
	return messages, nil
}

func (s *messageStore) DeleteAll(ctx context.Context) error {
	return s.queries.DeleteAllMessages(ctx)
}
