package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs
// within a context. Business context (message id, summary version, the
// relay channel) flows through context enrichment so individual log
// statements never need to repeat it.
type LogFields struct {
	ConnectionID   *int64  // Ephemeral websocket connection ID
	MessageID      *int64  // Store-assigned message ID
	SummaryVersion *int64  // Summary State version token
	Channel        *string // Relay channel name
	Component      string  // Component name, e.g. "studio.hub"
}

// WithLogFields enriches context with structured log fields. Multiple
// calls merge fields, with newer non-nil/non-empty values winning.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context, empty if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, updated LogFields) LogFields {
	result := existing

	if updated.ConnectionID != nil {
		result.ConnectionID = updated.ConnectionID
	}
	if updated.MessageID != nil {
		result.MessageID = updated.MessageID
	}
	if updated.SummaryVersion != nil {
		result.SummaryVersion = updated.SummaryVersion
	}
	if updated.Channel != nil {
		result.Channel = updated.Channel
	}
	if updated.Component != "" {
		result.Component = updated.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value, useful for setting
// LogFields inline.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if
// truncated. Useful for logging message content and summaries.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
