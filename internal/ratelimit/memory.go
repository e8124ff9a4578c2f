package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval is how often StartSweeper evicts expired entries.
const DefaultSweepInterval = 10 * time.Minute

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps per-identifier windows in a mutex-guarded map. It is
// process-local; use RedisLimiter when several processes share a quota.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewMemoryLimiter creates an in-process fixed window limiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	cfg = cfg.withDefaults()
	return &MemoryLimiter{
		entries: make(map[string]*entry),
		max:     cfg.Max,
		window:  cfg.Window,
		now:     time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	if now != nil {
		l.now = now
	}
	return l
}

// Limit returns the configured admissions per window.
func (l *MemoryLimiter) Limit() int { return l.max }

// Check admits or rejects one request from identifier.
func (l *MemoryLimiter) Check(_ context.Context, identifier string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[identifier]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(l.window)}
		l.entries[identifier] = e
		return l.decision(true, e)
	}

	if e.count >= l.max {
		return l.decision(false, e)
	}
	e.count++
	return l.decision(true, e)
}

func (l *MemoryLimiter) decision(allowed bool, e *entry) Decision {
	remaining := l.max - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   allowed,
		Limit:     l.max,
		Remaining: remaining,
		ResetAt:   e.resetAt,
	}
}

// Remaining reports admissions left for identifier in its current window.
func (l *MemoryLimiter) Remaining(_ context.Context, identifier string) int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[identifier]
	if !ok || !now.Before(e.resetAt) {
		return l.max
	}
	if left := l.max - e.count; left > 0 {
		return left
	}
	return 0
}

// ResetTime reports when identifier's window ends. ok is false when there is
// no live window.
func (l *MemoryLimiter) ResetTime(_ context.Context, identifier string) (time.Time, bool) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[identifier]
	if !ok || !now.Before(e.resetAt) {
		return time.Time{}, false
	}
	return e.resetAt, true
}

// Sweep removes expired entries and returns how many were evicted.
func (l *MemoryLimiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for id, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of tracked identifiers.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// StartSweeper runs Sweep every interval until ctx is done. It blocks, so
// call it from its own goroutine.
func (l *MemoryLimiter) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

var _ Limiter = (*MemoryLimiter)(nil)
