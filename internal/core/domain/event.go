package domain

// EventType tags a StreamEvent.
type EventType string

// Stream event types.
const (
	// EventItem carries one deduplicated item.
	EventItem EventType = "item"

	// EventError reports a provider failure. The stream continues.
	EventError EventType = "error"

	// EventComplete terminates every event stream, including timed-out
	// and capped runs.
	EventComplete EventType = "complete"
)

// StreamEvent is the tagged union emitted by the events entry point.
// It is shaped for direct wire encoding: one small JSON record per event,
// suitable for one-frame-per-event push transports.
type StreamEvent struct {
	// Type discriminates the union.
	Type EventType `json:"type"`

	// Item is set when Type == EventItem.
	Item *Item `json:"item,omitempty"`

	// Provider names the failing provider when Type == EventError.
	Provider string `json:"provider,omitempty"`

	// Message describes the failure when Type == EventError.
	Message string `json:"message,omitempty"`

	// TotalYielded is the number of items emitted, set when Type == EventComplete.
	TotalYielded int `json:"total_yielded,omitempty"`

	// ElapsedMs is the wall-clock duration of the call in milliseconds,
	// set when Type == EventComplete.
	ElapsedMs int64 `json:"elapsed_ms,omitempty"`
}

// ItemEvent builds an item event.
func ItemEvent(item Item) StreamEvent {
	return StreamEvent{Type: EventItem, Item: &item}
}

// ErrorEvent builds a provider-failure event.
func ErrorEvent(provider string, err error) StreamEvent {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return StreamEvent{Type: EventError, Provider: provider, Message: msg}
}

// CompleteEvent builds the terminal event.
func CompleteEvent(totalYielded int, elapsedMs int64) StreamEvent {
	return StreamEvent{Type: EventComplete, TotalYielded: totalYielded, ElapsedMs: elapsedMs}
}

// Diagnostic reports a single provider failure observed during a merge.
// Provider failures are isolated: they never fail the call, they are only
// visible through diagnostics.
type Diagnostic struct {
	// Provider is the name of the failing provider.
	Provider string

	// Err is the underlying failure.
	Err error
}
