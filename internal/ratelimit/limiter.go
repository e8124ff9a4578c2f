// Package ratelimit implements fixed-window request counting keyed by client
// identifier.
//
// A window opens on the first request from an identifier and lasts for the
// configured duration. Up to Max requests are admitted inside the window;
// later requests are rejected without being counted. The first request after
// the window expires opens a fresh window with a count of one.
package ratelimit

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultMax is the number of admissions per identifier per window.
	DefaultMax = 5
	// DefaultWindow is the length of a fixed window.
	DefaultWindow = time.Hour
)

// Decision is the outcome of a single Check. All fields are taken from the
// same atomic update so response headers never disagree with the decision.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the time left until the window resets, rounded up to
// whole seconds and never below one second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return time.Second
	}
	return time.Duration(math.Ceil(wait.Seconds())) * time.Second
}

// Limiter decides whether an identifier may perform another request.
// Implementations never fail: backend errors resolve to an allowed decision.
type Limiter interface {
	Check(ctx context.Context, identifier string) Decision
	Remaining(ctx context.Context, identifier string) int
	ResetTime(ctx context.Context, identifier string) (time.Time, bool)
	Limit() int
}

// Config holds the window parameters shared by every backend.
type Config struct {
	Max    int
	Window time.Duration
}

func (c Config) withDefaults() Config {
	if c.Max <= 0 {
		c.Max = DefaultMax
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}
