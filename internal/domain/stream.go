package domain

// StreamEventType discriminates responsibility-scan progress events.
type StreamEventType string

const (
	StreamTotal       StreamEventType = "total"
	StreamProgress    StreamEventType = "progress"
	StreamAssignments StreamEventType = "assignments"
	StreamDone        StreamEventType = "done"
	StreamError       StreamEventType = "error"
)

// StreamEvent is one element of the scanner's ordered event sequence. The
// producer emits events as they become available; consumers read them
// incrementally. The full sequence is cached verbatim per user so a repeat
// request replays it without re-scanning.
type StreamEvent struct {
	Type      StreamEventType `json:"type"`
	Count     int             `json:"count,omitempty"`
	Processed int             `json:"processed,omitempty"`
	Data      []Assignment    `json:"data,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// TotalEvent reports the total number of matching entries.
func TotalEvent(count int) StreamEvent {
	return StreamEvent{Type: StreamTotal, Count: count}
}

// ProgressEvent reports how many applications have been processed.
func ProgressEvent(processed int) StreamEvent {
	return StreamEvent{Type: StreamProgress, Processed: processed}
}

// AssignmentsEvent carries one application's matching entries.
func AssignmentsEvent(data []Assignment) StreamEvent {
	return StreamEvent{Type: StreamAssignments, Data: data}
}

// DoneEvent terminates a successful stream.
func DoneEvent() StreamEvent { return StreamEvent{Type: StreamDone} }

// ErrorEvent terminates a failed stream. Data already emitted stays valid.
func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: StreamError, Message: message}
}
