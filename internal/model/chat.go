package model

import "time"

// Message is a committed chat message. ID is assigned by the store at
// commit time and is the single source of truth for ordering; relay and
// broadcast arrival order is never authoritative.
type Message struct {
	ID             int64
	AuthorIdentity string
	Content        string
	CreatedAt      time.Time
}

// Author is a persisted identity row. Names are unique; the same display
// name submitted twice maps to the same author.
type Author struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Identity labels one live connection. It is assigned at connect time,
// never persisted, and has no relation to authenticated users.
type Identity struct {
	ConnectionID int64
	DisplayName  string
}

// SummarySnapshot is the latest accepted summary with its monotonic
// version. Version increases each time a summarization attempt is
// initiated, not when it completes.
type SummarySnapshot struct {
	Text    string
	Version int64
}
