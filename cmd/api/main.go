package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/t5fueling/t5fueling-web/cmd/mainconfig"
	"github.com/t5fueling/t5fueling-web/internal/api/router"
	"github.com/t5fueling/t5fueling-web/internal/app/bootstrap"
	appconfig "github.com/t5fueling/t5fueling-web/internal/config"
	"github.com/t5fueling/t5fueling-web/internal/http/handlers"
	httpmiddleware "github.com/t5fueling/t5fueling-web/internal/http/middleware"
	"github.com/t5fueling/t5fueling-web/internal/leads"
	"github.com/t5fueling/t5fueling-web/internal/notify"
	"github.com/t5fueling/t5fueling-web/internal/observability/metrics"
	"github.com/t5fueling/t5fueling-web/internal/ratelimit"
	"github.com/t5fueling/t5fueling-web/pkg/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Local runs read .env; deployed environments set variables directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info("starting t5fueling-web API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"email_provider", cfg.EmailProvider,
		"rate_limit_backend", cfg.RateLimitBackend,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	pool, err := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}
	repo := bootstrap.BuildLeadRepository(pool, logger)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	limiter, err := bootstrap.BuildLimiter(cfg, redisClient, logger)
	if err != nil {
		return err
	}

	var awsCfg aws.Config
	if cfg.EmailProvider == notify.ProviderSES {
		awsCfg, err = mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
	}
	email, err := bootstrap.BuildEmail(cfg, awsCfg, logger)
	if err != nil {
		return err
	}
	notifier := bootstrap.BuildLeadNotifier(cfg, email, logger)

	metricsHandler, leadMetrics := setupLeadMetrics()
	leadsHandler := leads.NewHandler(repo, limiter, notifier, logger).
		WithMetrics(leadMetrics).
		WithHoneypotDelay(cfg.HoneypotDelay).
		WithNotifyTimeout(cfg.NotifyTimeout)

	throttle := httpmiddleware.NewThrottle(cfg.ProbeRatePerSecond, cfg.ProbeBurst)
	r := router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leadsHandler,
		HealthHandler:      handlers.NewHealthHandler(repo, email.Quota, email.Provider, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ProbeThrottle:      throttle,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Submissions wait for the notification, which may retry for up to
		// NOTIFY_TIMEOUT.
		WriteTimeout: cfg.NotifyTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		throttle.Run(gctx)
		return nil
	})
	if mem, ok := limiter.(*ratelimit.MemoryLimiter); ok {
		g.Go(func() error {
			mem.StartSweeper(gctx, cfg.RateLimitSweepInterval)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// connectPostgresPool returns a nil pool and no error when databaseURL is
// empty, which selects in-memory storage. A configured database that cannot
// be reached is an error so submissions are never silently kept in memory.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("connected to postgres")
	return pool, nil
}

func setupLeadMetrics() (http.Handler, *metrics.LeadMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewLeadMetrics(reg)
}
