package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/t5fueling/t5fueling-web/internal/config"
	"github.com/t5fueling/t5fueling-web/internal/leads"
	"github.com/t5fueling/t5fueling-web/internal/ratelimit"
	"github.com/t5fueling/t5fueling-web/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildLimiter returns the submission rate limiter for the configured
// backend. The redis backend needs a live client.
func BuildLimiter(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (ratelimit.Limiter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	limits := ratelimit.Config{Max: cfg.RateLimitMax, Window: cfg.RateLimitWindow}

	switch cfg.RateLimitBackend {
	case "", appconfig.RateLimitBackendMemory:
		return ratelimit.NewMemoryLimiter(limits), nil
	case appconfig.RateLimitBackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("bootstrap: redis rate limit backend selected but redis is unavailable")
		}
		return ratelimit.NewRedisLimiter(redisClient, limits, logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown rate limit backend %q", cfg.RateLimitBackend)
	}
}

// BuildLeadRepository returns the Postgres repository when a pool is
// available, otherwise an in-memory one.
func BuildLeadRepository(pool *pgxpool.Pool, logger *logging.Logger) leads.Repository {
	if pool != nil {
		return leads.NewPostgresRepository(pool)
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger.Warn("DATABASE_URL not set; lead submissions are kept in memory only")
	return leads.NewInMemoryRepository()
}

// LoadLocation resolves the business timezone, falling back to UTC.
func LoadLocation(name string, logger *logging.Logger) *time.Location {
	if strings.TrimSpace(name) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		if logger == nil {
			logger = logging.Default()
		}
		logger.Warn("unknown business timezone, using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}
