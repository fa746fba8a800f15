package model

import "fmt"

// EventKind names an event reported back to the surrounding screen
type EventKind string

const (
	EventReady     EventKind = "ready"
	EventTimeout   EventKind = "timeout"
	EventCompleted EventKind = "completed"
	EventDismissed EventKind = "dismissed"
	EventAdvanced  EventKind = "advanced"
)

// String returns the string representation of EventKind
func (k EventKind) String() string {
	return string(k)
}

// Event is a viewed/completed notification for one item
type Event struct {
	ItemID    string
	Kind      EventKind
	Direction Direction // only meaningful for EventAdvanced
	Err       error     // cause for EventTimeout when the item failed
}

// String renders the event the way the feed logs it, e.g. "advanced(next)"
func (e Event) String() string {
	if e.Kind == EventAdvanced {
		return fmt.Sprintf("%s(%s)", e.Kind, e.Direction)
	}
	return string(e.Kind)
}
