package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/t5fueling/t5fueling-web/internal/ratelimit"
	"github.com/t5fueling/t5fueling-web/pkg/logging"
)

const (
	throttleIdleTTL      = 10 * time.Minute
	throttleCleanupEvery = 5 * time.Minute
)

// Throttle keeps a token bucket per client for cheap endpoints such as the
// health probes, which call out to SES or Postgres on every hit.
type Throttle struct {
	mu      sync.Mutex
	entries map[string]*throttleEntry
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

type throttleEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewThrottle allows rps requests per second per client with the given
// burst.
func NewThrottle(rps float64, burst int) *Throttle {
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		entries: make(map[string]*throttleEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: throttleIdleTTL,
		now:     time.Now,
	}
}

// Allow consumes one token for client.
func (t *Throttle) Allow(client string) bool {
	now := t.now()

	t.mu.Lock()
	ent, ok := t.entries[client]
	if !ok {
		ent = &throttleEntry{lim: rate.NewLimiter(t.rps, t.burst)}
		t.entries[client] = ent
	}
	ent.lastSeen = now
	t.mu.Unlock()

	return ent.lim.AllowN(now, 1)
}

// Cleanup drops clients idle for longer than the idle TTL.
func (t *Throttle) Cleanup() int {
	cutoff := t.now().Add(-t.idleTTL)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for k, ent := range t.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(t.entries, k)
			removed++
		}
	}
	return removed
}

// Run evicts idle clients until ctx is done.
func (t *Throttle) Run(ctx context.Context) {
	ticker := time.NewTicker(throttleCleanupEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Cleanup()
		}
	}
}

// Middleware rejects requests over the per-client rate with 429.
func (t *Throttle) Middleware(logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ratelimit.ClientIdentifier(r)
			if !t.Allow(client) {
				logger.Warn("probe throttled", "client", client, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
