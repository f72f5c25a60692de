package tui

import (
	"sync"

	"github.com/red-hand/midenclaim/internal/event"
	"github.com/red-hand/midenclaim/internal/ringlog"
)

// WorkerView is the dashboard's copy of one worker.
type WorkerView struct {
	State      string
	Label      string
	NextRun    string
	RetryCount int
	Logs       []string
}

// Board folds worker events into a view store. Its bus handlers only take a
// short lock, so publishing never waits on rendering.
type Board struct {
	mu      sync.RWMutex
	workers map[int]*boardEntry
}

type boardEntry struct {
	state      string
	label      string
	nextRun    string
	retryCount int
	logs       *ringlog.Buffer
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{workers: make(map[int]*boardEntry)}
}

// Attach subscribes the board to bus and returns a function that detaches it.
func (b *Board) Attach(bus *event.Bus) (detach func()) {
	return bus.Subscribe(b.handle, event.TypeWorkerState, event.TypeWorkerLog)
}

func (b *Board) handle(e event.Event) {
	switch ev := e.(type) {
	case event.WorkerStateEvent:
		b.mu.Lock()
		w := b.entry(ev.WorkerID)
		w.state = ev.State
		w.label = ev.Label
		w.nextRun = ev.NextRun
		w.retryCount = ev.RetryCount
		b.mu.Unlock()
	case event.WorkerLogEvent:
		b.mu.Lock()
		b.entry(ev.WorkerID).logs.Append(ev.Line)
		b.mu.Unlock()
	}
}

// entry must be called with mu held for writing.
func (b *Board) entry(id int) *boardEntry {
	w, ok := b.workers[id]
	if !ok {
		w = &boardEntry{
			state:   "Idle",
			label:   "Idle",
			nextRun: "Ready",
			logs:    ringlog.New(ringlog.DefaultCapacity),
		}
		b.workers[id] = w
	}
	return w
}

// Worker returns the view of worker id. Unknown workers read as idle.
func (b *Board) Worker(id int) WorkerView {
	b.mu.RLock()
	defer b.mu.RUnlock()
	w, ok := b.workers[id]
	if !ok {
		return WorkerView{State: "Idle", Label: "Idle", NextRun: "Ready"}
	}
	return WorkerView{
		State:      w.state,
		Label:      w.label,
		NextRun:    w.nextRun,
		RetryCount: w.retryCount,
		Logs:       w.logs.Lines(),
	}
}
