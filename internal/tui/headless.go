package tui

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/red-hand/midenclaim/internal/event"
	"github.com/red-hand/midenclaim/internal/logging"
)

// DefaultStatsInterval is how often the headless sink prints the counters.
const DefaultStatsInterval = time.Minute

// headlessBacklog bounds the lines waiting for Run to write them.
const headlessBacklog = 1024

// Headless prints worker log lines and periodic stats as plain text, for
// runs without a terminal.
//
// Only Run writes to out. Event handlers queue lines and never block; when
// the backlog is full a line is dropped and counted.
type Headless struct {
	out      io.Writer
	source   StatsSource
	logger   *logging.Logger
	interval time.Duration
	lines    chan string
	dropped  atomic.Int64
	reported int64 // drops already announced; owned by Run
}

// NewHeadless creates a headless sink writing to out.
func NewHeadless(out io.Writer, source StatsSource, logger *logging.Logger, interval time.Duration) *Headless {
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Headless{
		out:      out,
		source:   source,
		logger:   logger,
		interval: interval,
		lines:    make(chan string, headlessBacklog),
	}
}

// Attach subscribes the sink to bus and returns a function that detaches it.
func (h *Headless) Attach(bus *event.Bus) (detach func()) {
	return bus.Subscribe(func(e event.Event) {
		switch ev := e.(type) {
		case event.WorkerLogEvent:
			h.enqueue(fmt.Sprintf("#%-3d %s\n", ev.WorkerID, ev.Line))
		case event.WorkerStateEvent:
			h.logger.WithAccount(ev.WorkerID).Debug("worker state",
				"state", ev.State,
				"label", ev.Label,
				"next_run", ev.NextRun,
				"retry_count", ev.RetryCount,
			)
		}
	}, event.TypeWorkerLog, event.TypeWorkerState)
}

func (h *Headless) enqueue(line string) {
	select {
	case h.lines <- line:
	default:
		h.dropped.Add(1)
	}
}

// Dropped returns the number of log lines discarded because out could not
// keep up.
func (h *Headless) Dropped() int64 {
	return h.dropped.Load()
}

// Run writes queued log lines as they arrive and a stats line every
// interval until ctx is done, then flushes the backlog and prints a final
// stats line.
func (h *Headless) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.printStats()
	for {
		select {
		case <-ctx.Done():
			h.flush()
			h.printStats()
			return nil
		case line := <-h.lines:
			h.write(line)
		case <-ticker.C:
			h.printStats()
		}
	}
}

func (h *Headless) flush() {
	for {
		select {
		case line := <-h.lines:
			h.write(line)
		default:
			return
		}
	}
}

func (h *Headless) printStats() {
	if n := h.dropped.Load() - h.reported; n > 0 {
		h.reported += n
		h.printf("== %d log lines dropped: output too slow\n", n)
		h.logger.Warn("headless output lagging", "dropped", n)
	}
	s := h.source.Stats()
	h.printf("== Wallets: %d | Proxies: %d | Active Browser: %d/%d | Success: %d | Queue: %d | Errors: %d\n",
		s.Total, s.Proxies, s.Active, s.MaxConcurrent, s.Success, s.QueueDepth, s.Errors)
	h.logger.Info("stats",
		"total", s.Total,
		"active", s.Active,
		"queue_depth", s.QueueDepth,
		"success", s.Success,
		"errors", s.Errors,
	)
}

func (h *Headless) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(h.out, format, args...)
}

func (h *Headless) write(line string) {
	_, _ = io.WriteString(h.out, line)
}
