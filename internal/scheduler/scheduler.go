package scheduler

import (
	"context"
	"sync"

	"github.com/red-hand/midenclaim/internal/account"
	"github.com/red-hand/midenclaim/internal/event"
	"github.com/red-hand/midenclaim/internal/logging"
	"github.com/red-hand/midenclaim/internal/stats"
)

// Publisher receives worker events. Publish must not block; *event.Bus
// satisfies it.
type Publisher interface {
	Publish(event.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(event.Event) {}

// Scheduler owns the admission queue, the concurrency gate and every worker.
type Scheduler struct {
	opts    Options
	exec    Executor
	pub     Publisher
	logger  *logging.Logger
	stats   *stats.Aggregator
	workers []*Worker

	mu            sync.Mutex
	queue         []*Worker
	active        int
	maxConcurrent int
	started       bool
	stopped       bool
	ctx           context.Context
	cancel        context.CancelFunc

	inflight sync.WaitGroup
}

// New creates a scheduler with one worker per account. proxies is the size of
// the proxy pool, reported in stats. pub and logger may be nil.
func New(accounts []account.Account, proxies int, exec Executor, opts Options, pub Publisher, logger *logging.Logger) *Scheduler {
	opts = opts.withDefaults()
	if pub == nil {
		pub = nopPublisher{}
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	maxConcurrent := opts.MaxConcurrent
	if len(accounts) == 1 {
		maxConcurrent = 1
	}

	s := &Scheduler{
		opts:          opts,
		exec:          exec,
		pub:           pub,
		logger:        logger,
		stats:         stats.NewAggregator(len(accounts), proxies),
		maxConcurrent: maxConcurrent,
	}
	s.workers = make([]*Worker, len(accounts))
	for i, acct := range accounts {
		s.workers[i] = newWorker(s, acct)
	}
	return s
}

// Start queues every worker. Executions run under a context derived from
// ctx; cancelling ctx aborts running claims but does not stop the timers,
// use Stop for that.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.stopped:
		s.mu.Unlock()
		return ErrStopped
	case s.started:
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info("scheduler started",
		"accounts", len(s.workers),
		"max_concurrent", s.maxConcurrent,
		"max_retries", s.opts.MaxRetries,
	)
	for _, w := range s.workers {
		w.QueueStart()
	}
	return nil
}

// Stop refuses further admissions, empties the queue, cancels every pending
// countdown and running claim, and waits for in-flight executions to return.
// It returns ctx.Err() if ctx ends first. Stop may be called more than once.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	first := !s.stopped
	s.stopped = true
	s.queue = nil
	cancel := s.cancel
	s.mu.Unlock()

	if first {
		s.logger.Info("scheduler stopping")
	}
	for _, w := range s.workers {
		w.halt()
	}
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		if first {
			s.logger.Info("scheduler stopped")
		}
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out waiting for executions")
		return ctx.Err()
	}
}

// Stopped reports whether Stop has been called.
func (s *Scheduler) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// MaxConcurrent returns the admission width fixed at construction.
func (s *Scheduler) MaxConcurrent() int {
	return s.maxConcurrent
}

// Stats returns a snapshot of the global counters.
func (s *Scheduler) Stats() stats.Snapshot {
	s.mu.Lock()
	gate := stats.GateState{
		Active:        s.active,
		MaxConcurrent: s.maxConcurrent,
		QueueDepth:    len(s.queue),
	}
	s.mu.Unlock()
	return s.stats.Snapshot(gate)
}

// Workers returns snapshots of all workers in account order.
func (s *Scheduler) Workers() []WorkerSnapshot {
	out := make([]WorkerSnapshot, len(s.workers))
	for i, w := range s.workers {
		out[i] = w.Snapshot()
	}
	return out
}

// Worker returns the worker for a 1-based account ID.
func (s *Scheduler) Worker(id int) (*Worker, bool) {
	if id < 1 || id > len(s.workers) {
		return nil, false
	}
	return s.workers[id-1], true
}

// enqueue appends w to the queue tail and pumps. It reports false once the
// scheduler is stopped.
func (s *Scheduler) enqueue(w *Worker) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, w)
	s.mu.Unlock()

	s.pump()
	return true
}

// pump admits queue heads while the gate has room. Safe to call redundantly.
// Nothing is admitted before Start.
func (s *Scheduler) pump() {
	s.mu.Lock()
	var admitted []*Worker
	for s.started && !s.stopped && s.active < s.maxConcurrent && len(s.queue) > 0 {
		w := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.active++
		s.inflight.Add(1)
		admitted = append(admitted, w)
	}
	ctx := s.ctx
	s.mu.Unlock()

	for _, w := range admitted {
		w.admit()
		go w.execute(ctx)
	}
}

// release returns one slot to the gate and pumps.
func (s *Scheduler) release() {
	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	s.inflight.Done()

	s.pump()
}
