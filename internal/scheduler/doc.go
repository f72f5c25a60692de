// Package scheduler runs claim operations for a fixed set of accounts under a
// global concurrency ceiling.
//
// Each account is owned by a Worker, a small state machine:
//
//	Idle -> Queued -> Running -> Processing -> Sleeping | RetryPending -> Queued ...
//
// Workers wait in a single FIFO admission queue. The Scheduler admits the
// queue head whenever fewer than MaxConcurrent executions are in flight
// (pump), and every execution gives its slot back exactly once when it ends
// (release), however the executor returns. Successful runs, and runs that
// exhaust their retries, sleep for a random whole number of seconds between
// MinLoop and MaxLoop; failed runs with retries left wait RetryDelay.
//
// Worker transitions and log lines are published as events so dashboards
// can follow along without ever blocking the scheduler.
package scheduler
