package relay

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is a tagged payload crossing the relay channel. Every variant
// carries enough identifying metadata (message id or summary version) for
// consumers to apply it idempotently: delivery of a key lower than or
// equal to the one already applied locally is a no-op.
type Envelope interface {
	envelopeKind() string
}

const (
	kindMessage = "message"
	kindSummary = "summary"
	kindReset   = "reset"
)

// MessageEnvelope fans a committed message out to every instance.
type MessageEnvelope struct {
	ID             int64     `json:"id"`
	AuthorIdentity string    `json:"authorIdentity"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SummaryEnvelope fans a committed summary snapshot out, keyed by version.
type SummaryEnvelope struct {
	Version int64  `json:"version"`
	Text    string `json:"text"`
}

// ResetEnvelope invalidates all prior message and summary state. Version
// continues the summary counter so in-flight stale results from before
// the clear can never win.
type ResetEnvelope struct {
	Version int64 `json:"version"`
}

func (MessageEnvelope) envelopeKind() string { return kindMessage }
func (SummaryEnvelope) envelopeKind() string { return kindSummary }
func (ResetEnvelope) envelopeKind() string   { return kindReset }

type taggedMessage struct {
	Type string `json:"type"`
	MessageEnvelope
}

type taggedSummary struct {
	Type string `json:"type"`
	SummaryEnvelope
}

type taggedReset struct {
	Type string `json:"type"`
	ResetEnvelope
}

// Encode serializes an envelope with its type tag.
func Encode(env Envelope) ([]byte, error) {
	switch e := env.(type) {
	case MessageEnvelope:
		return json.Marshal(taggedMessage{Type: kindMessage, MessageEnvelope: e})
	case SummaryEnvelope:
		return json.Marshal(taggedSummary{Type: kindSummary, SummaryEnvelope: e})
	case ResetEnvelope:
		return json.Marshal(taggedReset{Type: kindReset, ResetEnvelope: e})
	default:
		return nil, fmt.Errorf("unknown envelope type %T", env)
	}
}

// Decode deserializes a relay payload into its envelope variant. A
// payload without a type tag is treated as a message envelope, which is
// how the original wire format shipped them.
func Decode(data []byte) (Envelope, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}

	switch probe.Type {
	case kindMessage, "":
		var env MessageEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decoding message envelope: %w", err)
		}
		if env.ID == 0 {
			return nil, fmt.Errorf("message envelope missing id")
		}
		return env, nil
	case kindSummary:
		var env SummaryEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decoding summary envelope: %w", err)
		}
		return env, nil
	case kindReset:
		var env ResetEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decoding reset envelope: %w", err)
		}
		return env, nil
	default:
		return nil, fmt.Errorf("unknown envelope type %q", probe.Type)
	}
}
