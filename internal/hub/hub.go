package hub

import (
	"context"
	"log/slog"

	"metachat.app/studio/common/logger"
	"metachat.app/studio/internal/model"
	"metachat.app/studio/internal/relay"
	"metachat.app/studio/internal/summary"
)

// SummarySource exposes the latest committed summary for on-connect replay.
type SummarySource interface {
	Snapshot() model.SummarySnapshot
}

// Hub tracks every live connection on this instance and broadcasts
// relay-delivered envelopes to all of them. All state — the connection
// set and the instance-local idempotence markers — is owned by the Run
// loop and mutated only there; the exported methods just enqueue events.
type Hub struct {
	summaries SummarySource
	events    chan event

	// Run-loop owned. Never touched outside the loop.
	conns              map[int64]*Connection
	lastMessageID      int64
	lastSummaryVersion int64
	lastSummaryText    string
}

type event interface {
	isEvent()
}

type registerEvent struct {
	conn *Connection
}

type unregisterEvent struct {
	connID int64
}

type envelopeEvent struct {
	env relay.Envelope
}

func (registerEvent) isEvent()   {}
func (unregisterEvent) isEvent() {}
func (envelopeEvent) isEvent()   {}

func New(summaries SummarySource) *Hub {
	return &Hub{
		summaries: summaries,
		events:    make(chan event, 64),
		conns:     make(map[int64]*Connection),
	}
}

// Register attaches a connection; the loop replays the current summary
// and assigns the ephemeral identity to it.
func (h *Hub) Register(conn *Connection) {
	h.events <- registerEvent{conn: conn}
}

// Unregister detaches a connection. Safe to call for connections already
// dropped by the loop.
func (h *Hub) Unregister(connID int64) {
	h.events <- unregisterEvent{connID: connID}
}

// Deliver is the relay subscriber handler. Envelopes may arrive more than
// once and out of order; the loop applies them idempotently.
func (h *Hub) Deliver(ctx context.Context, env relay.Envelope) {
	h.events <- envelopeEvent{env: env}
}

// Run processes hub events one at a time until the context is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "studio.hub"})

	for {
		select {
		case <-ctx.Done():
			for _, conn := range h.conns {
				close(conn.send)
			}
			h.conns = make(map[int64]*Connection)
			return ctx.Err()
		case ev := <-h.events:
			h.handle(ctx, ev)
		}
	}
}

func (h *Hub) handle(ctx context.Context, ev event) {
	switch e := ev.(type) {
	case registerEvent:
		h.register(ctx, e.conn)
	case unregisterEvent:
		h.drop(ctx, e.connID)
	case envelopeEvent:
		h.apply(ctx, e.env)
	}
}

func (h *Hub) register(ctx context.Context, conn *Connection) {
	h.conns[conn.ID] = conn

	ctx = logger.WithLogFields(ctx, logger.LogFields{ConnectionID: logger.Ptr(conn.ID)})
	slog.InfoContext(ctx, "connection registered",
		"display_name", conn.Identity.DisplayName,
		"connections", len(h.conns))

	h.send(ctx, conn, Frame{
		Event: EventUsernameAssigned,
		Data:  UsernameAssignedData{DisplayName: conn.Identity.DisplayName},
	})

	// Replay the latest summary to this connection only. The local
	// state cell only moves when this instance runs the pipeline, so a
	// summary applied from a relay envelope may be newer than it.
	snapshot := h.summaries.Snapshot()
	text := snapshot.Text
	if h.lastSummaryVersion > snapshot.Version {
		text = h.lastSummaryText
	}
	h.send(ctx, conn, Frame{
		Event: EventSummaryUpdate,
		Data:  SummaryUpdateData{Text: text},
	})
}

func (h *Hub) drop(ctx context.Context, connID int64) {
	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(h.conns, connID)
	close(conn.send)

	slog.InfoContext(ctx, "connection dropped",
		"connection_id", connID,
		"connections", len(h.conns))
}

// apply handles one relay envelope. Dedup is instance-local: a key lower
// than or equal to the last applied one is a no-op, and reconnecting
// clients reconcile any gap through the catch-up fetch sorted by id.
func (h *Hub) apply(ctx context.Context, env relay.Envelope) {
	switch e := env.(type) {
	case relay.MessageEnvelope:
		if e.ID <= h.lastMessageID {
			slog.DebugContext(ctx, "skipping duplicate or stale message envelope",
				"message_id", e.ID, "last_message_id", h.lastMessageID)
			return
		}
		h.lastMessageID = e.ID
		h.broadcast(ctx, Frame{
			Event: EventNewMessage,
			Data: NewMessageData{
				ID:             e.ID,
				AuthorIdentity: e.AuthorIdentity,
				Content:        e.Content,
				CreatedAt:      e.CreatedAt,
			},
		})
	case relay.SummaryEnvelope:
		if e.Version <= h.lastSummaryVersion {
			slog.DebugContext(ctx, "skipping duplicate or stale summary envelope",
				"version", e.Version, "last_version", h.lastSummaryVersion)
			return
		}
		h.lastSummaryVersion = e.Version
		h.lastSummaryText = e.Text
		h.broadcast(ctx, Frame{
			Event: EventSummaryUpdate,
			Data:  SummaryUpdateData{Text: e.Text},
		})
	case relay.ResetEnvelope:
		if e.Version <= h.lastSummaryVersion {
			slog.DebugContext(ctx, "skipping duplicate or stale reset envelope",
				"version", e.Version, "last_version", h.lastSummaryVersion)
			return
		}
		h.lastSummaryVersion = e.Version
		h.lastSummaryText = summary.EmptyText
		h.broadcast(ctx, Frame{Event: EventMessagesCleared})
	default:
		slog.WarnContext(ctx, "unhandled envelope variant", "envelope", env)
	}
}

func (h *Hub) broadcast(ctx context.Context, frame Frame) {
	for _, conn := range h.conns {
		h.send(ctx, conn, frame)
	}
}

// send never blocks the loop. A connection whose buffer is full is not
// keeping up and gets dropped; it can reconnect and catch up by fetching
// the full list.
func (h *Hub) send(ctx context.Context, conn *Connection, frame Frame) {
	select {
	case conn.send <- frame:
	default:
		slog.WarnContext(ctx, "dropping slow connection",
			"connection_id", conn.ID,
			"display_name", conn.Identity.DisplayName)
		delete(h.conns, conn.ID)
		close(conn.send)
	}
}
