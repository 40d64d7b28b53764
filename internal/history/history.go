package history

import (
	"context"
	"time"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	EventStart        EventType = "start"
	EventStop         EventType = "stop"
	EventStaleCleanup EventType = "stale_cleanup"
)

// Event is one supervisor lifecycle fact, exported to external systems for
// auditing when a history DSN is configured.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	PID        int       `json:"pid"`
	Note       string    `json:"note,omitempty"`
}

// Sink is a destination for history events (analytics/statistics systems).
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}
