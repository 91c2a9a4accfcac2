package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"buchhaltung/internal/amqp"
	"buchhaltung/internal/config"
	"buchhaltung/internal/log"
	"buchhaltung/internal/services"
	"buchhaltung/internal/sheets"
	gsheet "buchhaltung/internal/sheets/google"
	mem "buchhaltung/internal/sheets/memory"
	"buchhaltung/internal/storage"
	"buchhaltung/internal/worker"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting buchhaltung-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath, storage.SourceSystem)
	if err != nil {
		logger.Error("Failed to open ledger store", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Mirror target: Google Sheets when configured, otherwise in-memory.
	var writer sheets.SummaryWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewClient(ctx, cfg.GoogleSpreadsheetID, cfg.SheetNamePrefix)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = mem.New()
		logger.Info("No GOOGLE_SPREADSHEET_ID set, mirroring in memory only")
	}

	events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer events.Close()

	summaries := services.NewSummaryService(repo, logger)
	eventWorker := worker.NewEventWorker(summaries, writer, logger)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return events.ConsumeLedgerEvents(groupCtx, func(msg *amqp.LedgerEventMessage) error {
			return eventWorker.HandleLedgerEvent(groupCtx, msg)
		})
	})

	group.Go(func() error {
		return eventWorker.RunPeriodicMirror(groupCtx, cfg.MirrorInterval)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
