package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier, "category.action".
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeWorkerState = "worker.state"
	TypeWorkerLog   = "worker.log"
)

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// WorkerStateEvent is emitted on every worker state transition and whenever
// the countdown label of a sleeping or retrying worker changes.
type WorkerStateEvent struct {
	baseEvent
	WorkerID   int    // account ordinal
	State      string // state name, e.g. "Sleeping"
	Label      string // display label, e.g. "Retry 2/3"
	NextRun    string // countdown label or "Ready"
	RetryCount int
}

// NewWorkerStateEvent creates a WorkerStateEvent.
func NewWorkerStateEvent(workerID int, state, label, nextRun string, retryCount int) WorkerStateEvent {
	return WorkerStateEvent{
		baseEvent:  newBaseEvent(TypeWorkerState),
		WorkerID:   workerID,
		State:      state,
		Label:      label,
		NextRun:    nextRun,
		RetryCount: retryCount,
	}
}

// WorkerLogEvent is emitted when a line is appended to a worker's log.
type WorkerLogEvent struct {
	baseEvent
	WorkerID int
	Line     string // "[HH:MM:SS] message"
	Message  string // message without the timestamp prefix
}

// NewWorkerLogEvent creates a WorkerLogEvent.
func NewWorkerLogEvent(workerID int, line, message string) WorkerLogEvent {
	return WorkerLogEvent{
		baseEvent: newBaseEvent(TypeWorkerLog),
		WorkerID:  workerID,
		Line:      line,
		Message:   message,
	}
}
