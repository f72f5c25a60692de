package scheduler

import (
	"math/rand/v2"
	"time"

	"github.com/red-hand/midenclaim/internal/countdown"
)

// Default tunables.
const (
	DefaultMaxConcurrent = 4
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = time.Minute
	DefaultMinLoop       = 5 * time.Minute
	DefaultMaxLoop       = 10 * time.Minute
)

// DelayFunc picks the reschedule delay between lo and hi inclusive.
type DelayFunc func(lo, hi time.Duration) time.Duration

// Source is the slice of *rand.Rand used by UniformDelay.
type Source interface {
	// Int64N returns a value in [0, n).
	Int64N(n int64) int64
}

type globalSource struct{}

func (globalSource) Int64N(n int64) int64 { return rand.Int64N(n) }

// UniformDelay returns a DelayFunc drawing a whole number of seconds
// uniformly from [lo, hi]. Both bounds are reachable. A nil src uses the
// package-level generator of math/rand/v2.
func UniformDelay(src Source) DelayFunc {
	if src == nil {
		src = globalSource{}
	}
	return func(lo, hi time.Duration) time.Duration {
		minSec := int64((lo + time.Second - 1) / time.Second)
		maxSec := int64(hi / time.Second)
		if maxSec <= minSec {
			return time.Duration(minSec) * time.Second
		}
		return time.Duration(minSec+src.Int64N(maxSec-minSec+1)) * time.Second
	}
}

// Options tunes a Scheduler. They are read once by New.
type Options struct {
	// MaxConcurrent bounds simultaneous executions. It is forced to 1 when
	// the scheduler has exactly one account.
	MaxConcurrent int
	// MaxRetries is the number of retries after a failed attempt before
	// the worker falls back to the long sleep.
	MaxRetries int
	// RetryDelay is the fixed wait before a retry.
	RetryDelay time.Duration
	// MinLoop and MaxLoop bound the randomized reschedule delay.
	MinLoop time.Duration
	MaxLoop time.Duration
	// TickInterval is how often countdown labels refresh.
	TickInterval time.Duration
	// Delay picks the reschedule delay. Defaults to UniformDelay(nil).
	Delay DelayFunc
	// Now stamps worker log lines. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the production tunables.
func DefaultOptions() Options {
	return Options{
		MaxConcurrent: DefaultMaxConcurrent,
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MinLoop:       DefaultMinLoop,
		MaxLoop:       DefaultMaxLoop,
		TickInterval:  countdown.DefaultTick,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = DefaultMaxConcurrent
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.MinLoop <= 0 {
		o.MinLoop = DefaultMinLoop
	}
	if o.MaxLoop < o.MinLoop {
		o.MaxLoop = o.MinLoop
	}
	if o.TickInterval <= 0 {
		o.TickInterval = countdown.DefaultTick
	}
	if o.Delay == nil {
		o.Delay = UniformDelay(nil)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
