package scheduler

import (
	"context"

	"github.com/red-hand/midenclaim/internal/account"
	"github.com/red-hand/midenclaim/internal/errors"
)

var (
	// ErrExecutorPanic wraps a panic recovered from an Executor.
	ErrExecutorPanic = errors.New("claim executor panicked")
	// ErrStopped is returned by Start once the scheduler has been stopped.
	ErrStopped = errors.New("scheduler stopped")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("scheduler already started")
)

// Progress lets an executor report on a running claim.
type Progress interface {
	// Logf appends a line to the worker's log.
	Logf(format string, args ...any)
	// Submitted marks the claim as submitted; the worker moves to Processing.
	Submitted()
}

// Executor performs one claim for an account. A nil error is a success and
// anything else is a failure. ctx is cancelled when the scheduler stops, and
// implementations must release their resources when it is.
type Executor interface {
	Execute(ctx context.Context, acct account.Account, progress Progress) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, acct account.Account, progress Progress) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, acct account.Account, progress Progress) error {
	return f(ctx, acct, progress)
}
