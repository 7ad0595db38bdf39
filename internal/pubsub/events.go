// Package pubsub provides a generic publish/subscribe event system.
package pubsub

import "time"

// EventType names what happened.
type EventType string

const (
	// LoggedEvent carries a formatted log entry.
	LoggedEvent EventType = "logged"
	// ReloadedEvent carries the path of a scene that was rebuilt.
	ReloadedEvent EventType = "reloaded"
	// ReloadFailedEvent carries the reason a scene reload was rejected.
	ReloadFailedEvent EventType = "reload_failed"
)

// Event is one published value. Seq increases by one per Publish on a
// broker, so a subscriber that sees a gap knows events were dropped.
type Event[T any] struct {
	Type      EventType
	Seq       uint64
	Payload   T
	Timestamp time.Time
}
