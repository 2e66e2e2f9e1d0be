package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/cli"
	apphttp "dompet/internal/http"
	"dompet/internal/log"
	"dompet/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	store, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open ledger store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	reports, caches, err := cli.NewReportService(ctx, logger, cfg, store.Store)
	if err != nil {
		logger.Error("Failed to initialize report service", "error", err)
		os.Exit(1)
	}

	// Change events are optional; without AMQP the worker only sees the
	// periodic sweep.
	var events services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		events = amqpClient
		logger.Info("Ledger change events enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	ledgerSvc := services.NewLedgerService(store.Store, events, reports)

	srv := apphttp.NewServer(":"+cfg.Port, ledgerSvc, reports, apphttp.Options{
		Logger:             logger.WithComponent(log.ComponentHTTP),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		if err := caches.Close(); err != nil {
			logger.Error("Cache close error", "error", err)
		}
		if store.Cleanup != nil {
			if err := store.Cleanup(); err != nil {
				logger.Error("Store close error", "error", err)
			}
		}
	})

	logger.Info("Starting dompet server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
