// Package stats holds the process-wide counters shown on the dashboard.
//
// The aggregator is observational: success and error counters are bumped by
// worker transitions, while active executions and queue depth are supplied by
// the admission gate at snapshot time.
package stats

import "sync/atomic"

// Snapshot is a point-in-time copy of the global statistics.
type Snapshot struct {
	Total         int   `json:"total"`
	Proxies       int   `json:"proxies"`
	Active        int   `json:"active"`
	MaxConcurrent int   `json:"max_concurrent"`
	QueueDepth    int   `json:"queue_depth"`
	Success       int64 `json:"success"`
	Errors        int64 `json:"errors"`
}

// GateState is the live view of the admission gate folded into a snapshot.
type GateState struct {
	Active        int
	MaxConcurrent int
	QueueDepth    int
}

// Aggregator tracks cumulative outcomes. It is safe for concurrent use.
type Aggregator struct {
	total   int
	proxies int
	success atomic.Int64
	errors  atomic.Int64
}

// NewAggregator creates an aggregator for a fixed account and proxy population.
func NewAggregator(total, proxies int) *Aggregator {
	return &Aggregator{total: total, proxies: proxies}
}

// RecordSuccess counts one completed claim.
func (a *Aggregator) RecordSuccess() {
	a.success.Add(1)
}

// RecordError counts one failed claim attempt.
func (a *Aggregator) RecordError() {
	a.errors.Add(1)
}

// Snapshot combines the cumulative counters with the gate's live state.
func (a *Aggregator) Snapshot(gate GateState) Snapshot {
	return Snapshot{
		Total:         a.total,
		Proxies:       a.proxies,
		Active:        gate.Active,
		MaxConcurrent: gate.MaxConcurrent,
		QueueDepth:    gate.QueueDepth,
		Success:       a.success.Load(),
		Errors:        a.errors.Load(),
	}
}
