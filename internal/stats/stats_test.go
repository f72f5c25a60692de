package stats

import (
	"sync"
	"testing"
)

func TestAggregator_Snapshot(t *testing.T) {
	a := NewAggregator(5, 2)
	a.RecordSuccess()
	a.RecordError()
	a.RecordError()

	snap := a.Snapshot(GateState{Active: 3, MaxConcurrent: 4, QueueDepth: 2})

	want := Snapshot{Total: 5, Proxies: 2, Active: 3, MaxConcurrent: 4, QueueDepth: 2, Success: 1, Errors: 2}
	if snap != want {
		t.Errorf("Snapshot() = %+v, want %+v", snap, want)
	}
}

func TestAggregator_ConcurrentRecords(t *testing.T) {
	a := NewAggregator(1, 0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); a.RecordSuccess() }()
		go func() { defer wg.Done(); a.RecordError() }()
	}
	wg.Wait()

	snap := a.Snapshot(GateState{})
	if snap.Success != 50 || snap.Errors != 50 {
		t.Errorf("Success=%d Errors=%d, want 50/50", snap.Success, snap.Errors)
	}
}
