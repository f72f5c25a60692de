package scheduler

import "fmt"

// State is the lifecycle state of a Worker.
type State int

const (
	// Idle means the worker is neither queued, executing nor waiting on a timer.
	Idle State = iota
	// Queued means the worker is waiting in the admission queue.
	Queued
	// Running means the executor is working on the claim.
	Running
	// Processing means the claim was submitted and the executor is waiting
	// for it to finish.
	Processing
	// Sleeping means the worker waits out the randomized reschedule delay.
	Sleeping
	// RetryPending means the worker waits out the fixed retry delay.
	RetryPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Queued:
		return "Queued"
	case Running:
		return "Running"
	case Processing:
		return "Processing"
	case Sleeping:
		return "Sleeping"
	case RetryPending:
		return "RetryPending"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Executing reports whether the worker holds a concurrency slot.
func (s State) Executing() bool {
	return s == Running || s == Processing
}

// Waiting reports whether a countdown is pending for the worker.
func (s State) Waiting() bool {
	return s == Sleeping || s == RetryPending
}

// label is the display form of a state.
func label(s State, retry, maxRetries int) string {
	if s == RetryPending {
		return fmt.Sprintf("Retry %d/%d", retry, maxRetries)
	}
	return s.String()
}
