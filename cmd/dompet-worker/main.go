package main

import (
	"context"
	"errors"
	"os"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/cli"
	"dompet/internal/log"
	"dompet/internal/services"
	"dompet/internal/sheets"
	gsheet "dompet/internal/sheets/google"
	mem "dompet/internal/sheets/memory"
	"dompet/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting dompet-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	var publisher sheets.ReportPublisher
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		publisher = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		publisher = mem.New()
		logger.Info("Google Sheets disabled - reports kept in memory")
	}

	processor := services.NewSyncProcessor(reports, publisher, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		MaxRetries:   3,
		RetryDelay:   2 * time.Second,
	})
	syncWorker := worker.NewSyncWorker(processor, reports)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", "error", err)
		os.Exit(1)
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := amqpClient.ConsumeLedgerChanges(ctx, syncWorker.HandleLedgerChanged); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(sctx context.Context) {
		cancel()
		if err := processor.Stop(sctx); err != nil {
			logger.Error("Sync processor stop error", "error", err)
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

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker stopped gracefully")
}
