package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"metachat.app/studio/internal/hub"
)

type WSHandler struct {
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(h *hub.Hub, allowedOrigin string) *WSHandler {
	return &WSHandler{
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Serve upgrades the request and attaches the connection to the hub,
// which replays the current summary and assigns an ephemeral identity.
func (h *WSHandler) Serve(c *gin.Context) {
	ctx := c.Request.Context()

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(ctx, "websocket upgrade failed", "error", err)
		return
	}

	conn := hub.NewConnection(ws)
	h.hub.Register(conn)

	go conn.WritePump()
	go conn.ReadPump(h.hub)
}
