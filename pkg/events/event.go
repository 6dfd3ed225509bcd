package events

import (
	"context"
	"time"
)

// Event types published on the bus. NATS subjects are "events.<type>".
const (
	AuthSignedOut       = "AUTH_SIGNED_OUT"
	RelayCompleted      = "RELAY_COMPLETED"
	NotificationCreated = "NOTIFICATION_CREATED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "AUTH_SIGNED_OUT").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher is satisfied by the NATS publisher and by test doubles.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// String returns a payload value as a string, or "" when absent.
func String(e Event, key string) string {
	if v, ok := e.Payload()[key].(string); ok {
		return v
	}
	return ""
}
