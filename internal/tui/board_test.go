package tui

import (
	"fmt"
	"testing"

	"github.com/red-hand/midenclaim/internal/event"
)

func TestBoard_RecordsEvents(t *testing.T) {
	bus := event.NewBus()
	board := NewBoard()
	detach := board.Attach(bus)

	bus.Publish(event.NewWorkerStateEvent(3, "RetryPending", "Retry 1/3", "0m 59s", 1))
	bus.Publish(event.NewWorkerLogEvent(3, "[12:00:00] Retrying in 1m...", "Retrying in 1m..."))

	w := board.Worker(3)
	if w.Label != "Retry 1/3" || w.NextRun != "0m 59s" || w.RetryCount != 1 || w.State != "RetryPending" {
		t.Errorf("Worker(3) = %+v", w)
	}
	if len(w.Logs) != 1 || w.Logs[0] != "[12:00:00] Retrying in 1m..." {
		t.Errorf("Logs = %q", w.Logs)
	}

	detach()
	bus.Publish(event.NewWorkerStateEvent(3, "Queued", "Queued", "Ready", 1))
	if got := board.Worker(3).Label; got != "Retry 1/3" {
		t.Errorf("detached board still updated: %q", got)
	}
}

func TestBoard_UnknownWorkerIsIdle(t *testing.T) {
	w := NewBoard().Worker(42)
	if w.Label != "Idle" || w.NextRun != "Ready" || len(w.Logs) != 0 {
		t.Errorf("Worker(42) = %+v", w)
	}
}

func TestBoard_LogsBounded(t *testing.T) {
	bus := event.NewBus()
	board := NewBoard()
	board.Attach(bus)

	for i := range 80 {
		line := fmt.Sprintf("line %d", i)
		bus.Publish(event.NewWorkerLogEvent(1, line, line))
	}
	logs := board.Worker(1).Logs
	if len(logs) != 50 {
		t.Fatalf("len(Logs) = %d, want 50", len(logs))
	}
	if logs[0] != "line 30" || logs[49] != "line 79" {
		t.Errorf("oldest/newest = %q/%q", logs[0], logs[49])
	}
}
