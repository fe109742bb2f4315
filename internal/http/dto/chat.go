package dto

import (
	"time"

	"metachat.app/studio/internal/model"
)

type CreateMessageRequest struct {
	Content        string `json:"content"`
	AuthorIdentity string `json:"authorIdentity"`
}

type MessageResponse struct {
	ID             int64     `json:"id"`
	AuthorIdentity string    `json:"authorIdentity"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

type SummaryResponse struct {
	Summary string `json:"summary"`
}

func ToMessageResponse(m *model.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		AuthorIdentity: m.AuthorIdentity,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

func ToMessageResponses(msgs []model.Message) []MessageResponse {
	out := make([]MessageResponse, len(msgs))
	for i := range msgs {
		out[i] = ToMessageResponse(&msgs[i])
	}
	return out
}
