package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"metachat.app/studio/internal/http/dto"
	"metachat.app/studio/internal/service"
)

type ChatHandler struct {
	service service.ChatService
}

func NewChatHandler(svc service.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// List returns all messages sorted by id ascending. This is also the
// catch-up fetch a reconnecting client merges its live stream against.
func (h *ChatHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	msgs, err := h.service.ListMessages(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list messages", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, dto.ToMessageResponses(msgs))
}

func (h *ChatHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid create message request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.service.CreateMessage(ctx, service.CreateMessageParams{
		Content:        req.Content,
		AuthorIdentity: req.AuthorIdentity,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyContent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
			return
		}
		slog.ErrorContext(ctx, "failed to create message", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create message"})
		return
	}

	c.JSON(http.StatusOK, dto.ToMessageResponse(msg))
}

func (h *ChatHandler) Summary(c *gin.Context) {
	snapshot := h.service.Summary(c.Request.Context())
	c.JSON(http.StatusOK, dto.SummaryResponse{Summary: snapshot.Text})
}

func (h *ChatHandler) Clear(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.service.ClearAll(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to clear messages", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear messages"})
		return
	}

	c.Status(http.StatusNoContent)
}
