// Package countdown implements a replaceable, cancellable delay that reports
// the remaining time at a fixed tick interval and fires a completion callback
// exactly once.
//
// A Timer holds at most one live countdown. Starting a new countdown cancels
// the previous one, and callbacks belonging to a replaced or cancelled
// countdown are never invoked.
package countdown

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTick is the production tick interval.
const DefaultTick = time.Second

// TickFunc receives the remaining time, rounded up to whole seconds.
type TickFunc func(remaining time.Duration)

// ExpireFunc is invoked once when a countdown reaches zero.
type ExpireFunc func()

// Timer is a per-owner countdown handle. The zero value is not usable; use New.
type Timer struct {
	mu       sync.Mutex
	tick     time.Duration
	gen      uint64        // bumped on every Start and Cancel
	stop     chan struct{} // closed to stop the live countdown
}

// New creates a Timer ticking at the given interval.
// A non-positive interval falls back to DefaultTick.
func New(tick time.Duration) *Timer {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Timer{tick: tick}
}

// Start begins a countdown of duration d. Any live countdown is cancelled first.
// onTick is called immediately and then on every tick; onExpire is called
// exactly once when the countdown reaches zero. Either callback may be nil.
func (t *Timer) Start(d time.Duration, onTick TickFunc, onExpire ExpireFunc) {
	t.mu.Lock()
	t.cancelLocked()
	t.gen++
	gen := t.gen
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()
	deadline := time.Now().Add(d)

	if onTick != nil {
		onTick(RoundUp(d))
	}
	go t.run(gen, stop, deadline, onTick, onExpire)
}

func (t *Timer) run(gen uint64, stop <-chan struct{}, deadline time.Time, onTick TickFunc, onExpire ExpireFunc) {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()
	expiry := time.NewTimer(time.Until(deadline))
	defer expiry.Stop()

	for {
		select {
		case <-stop:
			return
		case <-expiry.C:
			if !t.finish(gen) {
				return
			}
			if onExpire != nil {
				onExpire()
			}
			return
		case now := <-ticker.C:
			remaining := deadline.Sub(now)
			if remaining <= 0 {
				// expiry fires on its own channel
				continue
			}
			if onTick != nil && t.current(gen) {
				onTick(RoundUp(remaining))
			}
		}
	}
}

// finish clears the handle if gen is still the live countdown.
func (t *Timer) finish(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen || t.stop == nil {
		return false
	}
	t.stop = nil
	return true
}

func (t *Timer) current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen == gen && t.stop != nil
}

// Cancel stops the live countdown, if any. It is safe to call on a timer
// that already fired or was already cancelled.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.gen++
}

func (t *Timer) cancelLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

// Active reports whether a countdown is pending.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// RoundUp rounds d up to a whole number of seconds.
func RoundUp(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	secs := (d + time.Second - 1) / time.Second
	return secs * time.Second
}

// Format renders a remaining duration as "Hh Mm" when at least one hour is
// left, and "Mm Ss" otherwise. Sub-second remainders round up.
func Format(d time.Duration) string {
	sec := int64(RoundUp(d) / time.Second)
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}
