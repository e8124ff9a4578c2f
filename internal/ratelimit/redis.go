package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/t5fueling/t5fueling-web/pkg/logging"
)

// DefaultKeyPrefix namespaces lead rate-limit counters in Redis.
const DefaultKeyPrefix = "ratelimit:leads:"

// checkScript performs the read-check-increment in one server-side step.
// Returns {count, pttl_ms, allowed}.
var checkScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
local ttl = redis.call('PTTL', KEYS[1])
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
if count == 0 or ttl <= 0 then
  redis.call('SET', KEYS[1], 1, 'PX', window)
  return {1, window, 1}
end
if count < max then
  count = redis.call('INCR', KEYS[1])
  return {count, ttl, 1}
end
return {count, ttl, 0}
`)

// RedisLimiter shares fixed windows between processes through Redis. Window
// expiry is delegated to key TTLs, so no sweeper is needed.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
	logger *logging.Logger
	now    func() time.Time
}

// NewRedisLimiter creates a limiter backed by client.
func NewRedisLimiter(client *redis.Client, cfg Config, logger *logging.Logger) *RedisLimiter {
	if client == nil {
		panic("ratelimit: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg = cfg.withDefaults()
	return &RedisLimiter{
		client: client,
		prefix: DefaultKeyPrefix,
		max:    cfg.Max,
		window: cfg.Window,
		logger: logger,
		now:    time.Now,
	}
}

// WithPrefix overrides the key prefix.
func (l *RedisLimiter) WithPrefix(prefix string) *RedisLimiter {
	if prefix != "" {
		l.prefix = prefix
	}
	return l
}

// Limit returns the configured admissions per window.
func (l *RedisLimiter) Limit() int { return l.max }

func (l *RedisLimiter) key(identifier string) string {
	return l.prefix + identifier
}

// Check admits or rejects one request. Redis failures fail open.
func (l *RedisLimiter) Check(ctx context.Context, identifier string) Decision {
	now := l.now()
	res, err := checkScript.Run(ctx, l.client, []string{l.key(identifier)}, l.max, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 3 {
		l.logger.Error("ratelimit: redis check failed, allowing request", "error", err, "identifier", identifier)
		return Decision{Allowed: true, Limit: l.max, Remaining: l.max - 1, ResetAt: now.Add(l.window)}
	}

	count, ttl, allowed := int(res[0]), time.Duration(res[1])*time.Millisecond, res[2] == 1
	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   allowed,
		Limit:     l.max,
		Remaining: remaining,
		ResetAt:   now.Add(ttl),
	}
}

// Remaining reports admissions left for identifier in its current window.
func (l *RedisLimiter) Remaining(ctx context.Context, identifier string) int {
	count, err := l.client.Get(ctx, l.key(identifier)).Int()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.logger.Warn("ratelimit: redis remaining lookup failed", "error", err, "identifier", identifier)
		}
		return l.max
	}
	if left := l.max - count; left > 0 {
		return left
	}
	return 0
}

// ResetTime reports when identifier's window ends.
func (l *RedisLimiter) ResetTime(ctx context.Context, identifier string) (time.Time, bool) {
	ttl, err := l.client.PTTL(ctx, l.key(identifier)).Result()
	if err != nil {
		l.logger.Warn("ratelimit: redis ttl lookup failed", "error", err, "identifier", identifier)
		return time.Time{}, false
	}
	if ttl <= 0 {
		return time.Time{}, false
	}
	return l.now().Add(ttl), true
}

var _ Limiter = (*RedisLimiter)(nil)
