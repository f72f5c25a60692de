package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/red-hand/midenclaim/internal/account"
	"github.com/red-hand/midenclaim/internal/countdown"
	"github.com/red-hand/midenclaim/internal/errors"
	"github.com/red-hand/midenclaim/internal/event"
	"github.com/red-hand/midenclaim/internal/logging"
	"github.com/red-hand/midenclaim/internal/ringlog"
)

// Labels shown in place of a countdown.
const (
	NextRunReady   = "Ready"
	NextRunStopped = "Stopped"
)

// maxErrorRunes bounds the error text copied into a worker log line.
const maxErrorRunes = 45

// Worker is the state machine for one account. Its state is guarded by its
// own mutex, which is never held while calling into the Scheduler or
// publishing events.
type Worker struct {
	s      *Scheduler
	acct   account.Account
	timer  *countdown.Timer
	logs   *ringlog.Buffer
	logger *logging.Logger

	mu      sync.Mutex
	state   State
	retry   int
	nextRun string
}

// WorkerSnapshot is a copy of a worker's observable state.
type WorkerSnapshot struct {
	Account    account.Account
	State      State
	Label      string
	NextRun    string
	RetryCount int
	Logs       []string
}

func newWorker(s *Scheduler, acct account.Account) *Worker {
	return &Worker{
		s:       s,
		acct:    acct,
		timer:   countdown.New(s.opts.TickInterval),
		logs:    ringlog.New(ringlog.DefaultCapacity),
		logger:  s.logger.WithAccount(acct.ID),
		nextRun: NextRunReady,
	}
}

// Account returns the worker's account.
func (w *Worker) Account() account.Account { return w.acct }

// State returns the current state.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// RetryCount returns the number of retries used in the current cycle.
func (w *Worker) RetryCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.retry
}

// Logs returns the worker's log lines, oldest first.
func (w *Worker) Logs() []string { return w.logs.Lines() }

// Snapshot returns a copy of the worker's observable state.
func (w *Worker) Snapshot() WorkerSnapshot {
	w.mu.Lock()
	snap := WorkerSnapshot{
		Account:    w.acct,
		State:      w.state,
		Label:      label(w.state, w.retry, w.s.opts.MaxRetries),
		NextRun:    w.nextRun,
		RetryCount: w.retry,
	}
	w.mu.Unlock()
	snap.Logs = w.logs.Lines()
	return snap
}

// QueueStart puts an idle worker in the admission queue. It does nothing in
// any other state, so a worker is never queued twice.
func (w *Worker) QueueStart() {
	w.mu.Lock()
	if w.state != Idle {
		w.mu.Unlock()
		return
	}
	w.state = Queued
	w.mu.Unlock()

	w.logf("Added to execution queue...")
	w.notify()

	if !w.s.enqueue(w) {
		w.setIdle(NextRunStopped)
	}
}

// admit is called by the gate after popping w from the queue.
func (w *Worker) admit() {
	w.mu.Lock()
	w.state = Running
	attempt := w.retry + 1
	w.mu.Unlock()

	w.logf("Launching browser (Attempt %d/%d)...", attempt, w.s.opts.MaxRetries+1)
	w.notify()
}

// execute runs the claim once and always releases the gate slot.
func (w *Worker) execute(ctx context.Context) {
	defer w.s.release()

	start := time.Now()
	err := w.invoke(ctx)
	switch {
	case err == nil:
		w.logger.Info("claim succeeded", "duration", time.Since(start).Round(time.Millisecond).String())
		w.succeed()
	case ctx.Err() != nil:
		w.logger.Info("claim aborted", "error", err.Error())
		w.abort()
	default:
		w.logger.Warn("claim failed",
			"error", err.Error(),
			"attempt", w.RetryCount()+1,
			"severity", errors.GetSeverity(err).String(),
			"retryable", errors.IsRetryable(err),
		)
		w.fail(err)
	}
}

func (w *Worker) invoke(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrExecutorPanic, r)
		}
	}()
	return w.s.exec.Execute(ctx, w.acct, progress{w})
}

func (w *Worker) succeed() {
	w.logf("Cycle completed.")
	w.s.stats.RecordSuccess()

	w.mu.Lock()
	w.retry = 0
	w.mu.Unlock()

	w.sleepLong()
}

func (w *Worker) fail(err error) {
	w.logf("Error: %s", errors.Short(err, maxErrorRunes))
	w.s.stats.RecordError()

	w.mu.Lock()
	if w.retry < w.s.opts.MaxRetries {
		w.retry++
		w.mu.Unlock()
		w.scheduleRetry()
		return
	}
	w.retry = 0
	w.mu.Unlock()

	w.logf("Max retries. Sleeping long.")
	w.sleepLong()
}

// abort handles an execution cut short by shutdown.
func (w *Worker) abort() {
	w.logf("Stopped.")
	w.setIdle(NextRunStopped)
}

func (w *Worker) scheduleRetry() {
	d := w.s.opts.RetryDelay
	w.logf("Retrying in %s...", delayText(d))
	w.wait(RetryPending, d)
}

func (w *Worker) sleepLong() {
	d := w.s.opts.Delay(w.s.opts.MinLoop, w.s.opts.MaxLoop)
	w.logf("Sleeping for %s...", delayText(d))
	w.wait(Sleeping, d)
}

// wait enters a timer state and starts the countdown that re-queues the
// worker. Once the scheduler is stopped the worker goes idle instead.
func (w *Worker) wait(state State, d time.Duration) {
	if w.s.Stopped() {
		w.setIdle(NextRunStopped)
		return
	}

	w.mu.Lock()
	w.state = state
	w.mu.Unlock()

	w.timer.Start(d, w.tick, w.wake)

	// Stop may have run between the check above and Start.
	if w.s.Stopped() {
		w.halt()
	}
}

func (w *Worker) tick(remaining time.Duration) {
	w.mu.Lock()
	if !w.state.Waiting() {
		w.mu.Unlock()
		return
	}
	w.nextRun = countdown.Format(remaining)
	w.mu.Unlock()
	w.notify()
}

// wake is the countdown expiry: back to Idle and straight into the queue.
func (w *Worker) wake() {
	w.mu.Lock()
	if !w.state.Waiting() {
		w.mu.Unlock()
		return
	}
	w.state = Idle
	w.nextRun = NextRunReady
	w.mu.Unlock()

	w.QueueStart()
}

// halt cancels the countdown and parks a queued or waiting worker. Executing
// workers are left to observe context cancellation.
func (w *Worker) halt() {
	w.timer.Cancel()

	w.mu.Lock()
	if w.state != Queued && !w.state.Waiting() {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()
	w.setIdle(NextRunStopped)
}

func (w *Worker) setIdle(nextRun string) {
	w.mu.Lock()
	w.state = Idle
	w.nextRun = nextRun
	w.mu.Unlock()
	w.notify()
}

func (w *Worker) submitted() {
	w.mu.Lock()
	if w.state != Running {
		w.mu.Unlock()
		return
	}
	w.state = Processing
	w.mu.Unlock()
	w.notify()
}

// delayText renders d in whole minutes ("5m"), or as "0m 30s" when it is
// shorter than a minute.
func delayText(d time.Duration) string {
	if d < time.Minute {
		return countdown.Format(d)
	}
	return fmt.Sprintf("%dm", int(d/time.Minute))
}

// logf appends a timestamped line to the log buffer and publishes it.
func (w *Worker) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("[%s] %s", w.s.opts.Now().Format(time.TimeOnly), msg)
	w.logs.Append(line)
	w.logger.Debug("worker log", "line", msg)
	w.s.pub.Publish(event.NewWorkerLogEvent(w.acct.ID, line, msg))
}

func (w *Worker) notify() {
	snap := w.Snapshot()
	w.s.pub.Publish(event.NewWorkerStateEvent(w.acct.ID, snap.State.String(), snap.Label, snap.NextRun, snap.RetryCount))
}

// progress is the Progress handed to the executor.
type progress struct{ w *Worker }

func (p progress) Logf(format string, args ...any) { p.w.logf(format, args...) }
func (p progress) Submitted()                      { p.w.submitted() }
