// Package presence tracks recently active sessions in process memory.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/timmy/drawmatch/internal/logger"
)

const (
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Tracker maps session IDs to their last activity time. Entries older than the
// TTL are inactive and removed by EvictStale, which runs on the sweep timer and
// before every Count. Entries do not survive a restart.
type Tracker struct {
	mu            sync.Mutex
	lastSeen      map[string]time.Time
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	onCount       func(int)
}

// NewTracker creates a tracker with the default TTL and sweep interval.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		lastSeen:      make(map[string]time.Time),
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Touch records now as the session's last activity. Empty IDs are ignored.
func (t *Tracker) Touch(sessionID string) {
	if sessionID == "" {
		return
	}
	now := t.now()
	t.mu.Lock()
	t.lastSeen[sessionID] = now
	t.mu.Unlock()
}

// Count evicts stale entries and returns the number of active sessions.
func (t *Tracker) Count() int {
	t.mu.Lock()
	t.evictLocked(t.now())
	n := len(t.lastSeen)
	t.mu.Unlock()

	if t.onCount != nil {
		t.onCount(n)
	}
	return n
}

// EvictStale removes every entry whose last activity is older than the TTL
// and returns how many were removed.
func (t *Tracker) EvictStale() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.evictLocked(t.now())
}

func (t *Tracker) evictLocked(now time.Time) int {
	cutoff := now.Add(-t.ttl)
	removed := 0
	for id, seen := range t.lastSeen {
		if seen.Before(cutoff) {
			delete(t.lastSeen, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked entries without evicting.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lastSeen)
}

// TTL returns the activity window.
func (t *Tracker) TTL() time.Duration {
	return t.ttl
}

// Run sweeps stale entries every sweep interval until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.sweepInterval)
	defer ticker.Stop()

	log := logger.With(logger.Fields{logger.FieldComponent: "presence"})
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := t.EvictStale(); removed > 0 {
				log.WithCount(removed).Debug(ctx, "Evicted stale sessions")
			}
		}
	}
}
