package hub

import "time"

// Frame is one event delivered to a live connection. Data shapes mirror
// the relay envelopes but carry only what clients render.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

const (
	EventNewMessage       = "new-message"
	EventSummaryUpdate    = "summary-update"
	EventMessagesCleared  = "messages-cleared"
	EventUsernameAssigned = "username-assigned"
)

// NewMessageData is tagged with the store-assigned id so client logic can
// detect gaps or reordering and reconcile via the catch-up fetch.
type NewMessageData struct {
	ID             int64     `json:"id"`
	AuthorIdentity string    `json:"authorIdentity"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

type SummaryUpdateData struct {
	Text string `json:"text"`
}

type UsernameAssignedData struct {
	DisplayName string `json:"displayName"`
}
