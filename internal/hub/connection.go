package hub

import (
	"time"

	"github.com/gorilla/websocket"

	"metachat.app/studio/common/id"
	"metachat.app/studio/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
	sendBuffer     = 64
)

// Connection is one live websocket attachment. It exists only while the
// client is connected, is owned by the hub of the instance it attached
// to, and holds no durable state.
type Connection struct {
	ID       int64
	Identity model.Identity

	ws   *websocket.Conn
	send chan Frame
}

// NewConnection wraps an upgraded websocket with a fresh ephemeral
// identity. The display name is readable, not globally unique.
func NewConnection(ws *websocket.Conn) *Connection {
	connID := id.New()
	return &Connection{
		ID: connID,
		Identity: model.Identity{
			ConnectionID: connID,
			DisplayName:  newDisplayName(),
		},
		ws:   ws,
		send: make(chan Frame, sendBuffer),
	}
}

// WritePump drains the send channel onto the wire. One writer goroutine
// per connection; the hub closes the channel to terminate it.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump consumes the wire until the peer goes away, then unregisters.
// Clients submit messages over the REST surface, so inbound data frames
// are discarded; reading is still required to process control frames.
func (c *Connection) ReadPump(h *Hub) {
	defer func() {
		h.Unregister(c.ID)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxInboundSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}
