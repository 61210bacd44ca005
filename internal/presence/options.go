package presence

import "time"

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithTTL sets how long a session stays active after its last touch.
func WithTTL(ttl time.Duration) Option {
	return func(t *Tracker) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithSweepInterval sets the period of the background eviction sweep.
func WithSweepInterval(interval time.Duration) Option {
	return func(t *Tracker) {
		if interval > 0 {
			t.sweepInterval = interval
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithOnCount registers a callback invoked with every Count result.
func WithOnCount(fn func(int)) Option {
	return func(t *Tracker) {
		t.onCount = fn
	}
}
