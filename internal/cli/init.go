// Package cli provides common CLI initialization utilities shared by
// cmd/dompet and cmd/dompet-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dompet/internal/backend"
	"dompet/internal/cache"
	"dompet/internal/config"
	"dompet/internal/log"
	"dompet/internal/services"
)

// SetupLogger initializes structured logging at the configured level and
// installs it as the slog default.
func SetupLogger(level, component string) *log.Logger {
	lvl, err := config.ParseLogLevel(level)
	cfg := log.DefaultConfig()
	cfg.Level = lvl
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", "level", level)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStore builds the configured ledger backend.
func OpenStore(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return res, nil
}

// ReportCaches holds the cache manager of in-process caches so callers can
// run expiry sweeps; it is nil when Redis is used.
type ReportCaches struct {
	Manager *cache.Manager
	cleanup func() error
}

func (c *ReportCaches) Close() error {
	if c.Manager != nil {
		c.Manager.Stop()
	}
	if c.cleanup != nil {
		return c.cleanup()
	}
	return nil
}

// NewReportService builds a ReportService over store. With REDIS_URL set the
// memoized snapshots and summaries live in Redis, shared between the API
// and the worker; otherwise they are bounded in-process LRU caches.
func NewReportService(ctx context.Context, logger *log.Logger, cfg *config.Config, store services.LedgerReader) (*services.ReportService, *ReportCaches, error) {
	opts := []services.ReportOption{services.WithTopLimit(cfg.TopCategoriesLimit)}
	caches := &ReportCaches{}

	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		opts = append(opts, services.WithCaches(
			cache.NewRedisCache[services.Snapshot](client, "dompet:snapshot:", cfg.ReportCacheTTL),
			cache.NewRedisCache[services.SummaryView](client, "dompet:summary:", cfg.ReportCacheTTL),
		))
		caches.cleanup = client.Close
		logger.Info("Report cache backed by Redis", "ttl", cfg.ReportCacheTTL)
	} else {
		snapshots := cache.NewLRUCache[services.Snapshot](1, cfg.ReportCacheTTL)
		summaries := cache.NewLRUCache[services.SummaryView](cfg.ReportCacheSize, cfg.ReportCacheTTL)
		opts = append(opts, services.WithCaches(snapshots, summaries))

		caches.Manager = cache.NewManager()
		caches.Manager.Register(snapshots)
		caches.Manager.Register(summaries)
		caches.Manager.StartCleanup(ctx, time.Minute)
		logger.Info("Report cache in memory", "size", cfg.ReportCacheSize, "ttl", cfg.ReportCacheTTL)
	}

	return services.NewReportService(store, opts...), caches, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when cleanup has finished.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
