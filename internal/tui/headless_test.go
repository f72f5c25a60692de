package tui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/red-hand/midenclaim/internal/account"
	"github.com/red-hand/midenclaim/internal/event"
	"github.com/red-hand/midenclaim/internal/scheduler"
)

const waitTimeout = 3 * time.Second

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// stallWriter blocks every Write until release is closed, like a paused
// pipe reader.
type stallWriter struct {
	once    sync.Once
	blocked chan struct{} // closed on the first Write
	release chan struct{}
	buf     syncBuffer
}

func newStallWriter() *stallWriter {
	return &stallWriter{blocked: make(chan struct{}), release: make(chan struct{})}
}

func (w *stallWriter) Write(p []byte) (int, error) {
	w.once.Do(func() { close(w.blocked) })
	<-w.release
	return w.buf.Write(p)
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}

// runHeadless starts h.Run and returns a function that stops it and waits
// for it to return.
func runHeadless(t *testing.T, h *Headless) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()
	return func() {
		t.Helper()
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() = %v", err)
			}
		case <-time.After(waitTimeout):
			t.Fatal("Run did not return")
		}
	}
}

func TestHeadless_PrintsLogLines(t *testing.T) {
	out := &syncBuffer{}
	h := NewHeadless(out, fixedStats{}, nil, time.Hour)
	bus := event.NewBus()
	detach := h.Attach(bus)
	stop := runHeadless(t, h)

	bus.Publish(event.NewWorkerLogEvent(7, "[12:00:00] Cycle completed.", "Cycle completed."))
	bus.Publish(event.NewWorkerStateEvent(7, "Sleeping", "Sleeping", "5m 0s", 0))
	waitFor(t, "log line", func() bool { return strings.Contains(out.String(), "Cycle completed.") })
	detach()
	bus.Publish(event.NewWorkerLogEvent(7, "[12:00:01] ignored", "ignored"))
	stop()

	got := out.String()
	if !strings.Contains(got, "#7   [12:00:00] Cycle completed.") {
		t.Errorf("output = %q", got)
	}
	if strings.Contains(got, "ignored") {
		t.Error("detached sink still printing")
	}
}

func TestHeadless_RunPrintsStats(t *testing.T) {
	out := &syncBuffer{}
	h := NewHeadless(out, fixedStats{Total: 3, Active: 1, MaxConcurrent: 2, Success: 4, Errors: 1}, nil, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()
	if err := h.Run(ctx); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	got := out.String()
	if n := strings.Count(got, "== Wallets: 3"); n < 2 {
		t.Errorf("expected periodic stats lines, got %d:\n%s", n, got)
	}
	if !strings.Contains(got, "Active Browser: 1/2 | Success: 4 | Queue: 0 | Errors: 1") {
		t.Errorf("stats line format: %q", got)
	}
}

func TestHeadless_StalledOutputDoesNotHoldScheduler(t *testing.T) {
	out := newStallWriter()
	bus := event.NewBus()

	exec := scheduler.ExecutorFunc(func(context.Context, account.Account, scheduler.Progress) error {
		return nil
	})
	accts := account.Assign([]string{"mtst1wallet0001", "mtst1wallet0002"}, nil)
	sched := scheduler.New(accts, 0, exec, scheduler.Options{MinLoop: time.Hour, MaxLoop: 2 * time.Hour}, bus, nil)

	h := NewHeadless(out, sched, nil, time.Hour)
	defer h.Attach(bus)()
	stopRun := runHeadless(t, h)
	<-out.blocked

	if err := sched.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "both claims to finish", func() bool {
		s := sched.Stats()
		return s.Success == 2 && s.Active == 0
	})

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := sched.Stop(ctx); err != nil {
		t.Errorf("Stop() = %v while output was stalled", err)
	}

	close(out.release)
	stopRun()
	if got := out.buf.String(); strings.Count(got, "Cycle completed.") != 2 {
		t.Errorf("queued lines not written after the stall:\n%s", got)
	}
}

func TestHeadless_DropsWhenBacklogFull(t *testing.T) {
	out := newStallWriter()
	bus := event.NewBus()
	h := NewHeadless(out, fixedStats{}, nil, time.Hour)
	defer h.Attach(bus)()
	stopRun := runHeadless(t, h)
	<-out.blocked

	const extra = 100
	published := make(chan struct{})
	go func() {
		defer close(published)
		for i := range headlessBacklog + extra {
			line := fmt.Sprintf("[12:00:00] line %d", i)
			bus.Publish(event.NewWorkerLogEvent(1, line, line))
		}
	}()
	select {
	case <-published:
	case <-time.After(waitTimeout):
		t.Fatal("Publish blocked on stalled output")
	}

	if got := h.Dropped(); got != extra {
		t.Errorf("Dropped() = %d, want %d", got, extra)
	}

	close(out.release)
	stopRun()
	got := out.buf.String()
	if !strings.Contains(got, fmt.Sprintf("== %d log lines dropped", extra)) {
		t.Errorf("drop count not reported:\n%s", got[max(0, len(got)-300):])
	}
	if !strings.Contains(got, fmt.Sprintf("line %d\n", headlessBacklog-1)) {
		t.Error("backlog not flushed")
	}
}
