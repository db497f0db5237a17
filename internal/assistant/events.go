package assistant

import "time"

// Event represents an assistant lifecycle event: a name, the model ID and
// optional fields. Events of the same load attempt share LoadID.
type Event struct {
	Name    string
	ModelID string
	LoadID  string
	Time    time.Time
	Fields  map[string]any
}

// Event names published by the Assistant.
const (
	EventLoadStart = "load_start"
	EventLoadReady = "load_ready"
	EventLoadError = "load_error"
)

// EventPublisher receives events from the Assistant. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
