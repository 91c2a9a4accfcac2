package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"buchhaltung/internal/amqp"
	"buchhaltung/internal/config"
	"buchhaltung/internal/documents"
	apphttp "buchhaltung/internal/http"
	"buchhaltung/internal/log"
	"buchhaltung/internal/services"
	"buchhaltung/internal/storage"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.APIKey == "" {
		logger.Warn("API_KEY not set, all API requests will be refused")
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath, storage.SourceAPI)
	if err != nil {
		logger.Error("Failed to open ledger store", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	docs, err := documents.NewStore(cfg.UploadDir, cfg.MaxUploadSize)
	if err != nil {
		logger.Error("Failed to initialize document store", log.FieldError, err, "dir", cfg.UploadDir)
		os.Exit(1)
	}

	// Event bus is best effort; the API keeps working without it.
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", log.FieldError, err)
			events = nil
		} else {
			defer events.Close()
		}
	}

	ledger := services.NewLedgerService(repo, docs, events, logger)
	summaries := services.NewSummaryService(repo, logger)

	srv := apphttp.NewServer(":"+cfg.Port, cfg.APIKey, ledger, summaries, repo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting buchhaltung server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
