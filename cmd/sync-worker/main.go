package main

import (
	"context"
	"os"
	"time"

	"hoteldash/internal/amqp"
	"hoteldash/internal/cli"
	"hoteldash/internal/log"
	"hoteldash/internal/services"
	"hoteldash/internal/source/google"
	"hoteldash/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)

	logger.Info("Starting sync-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the sync worker")
		os.Exit(1)
	}

	// SQLite holds the rows waiting to be mirrored
	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	sheetsClient, err := google.New(context.Background(), google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		SyncSheetName:   cfg.GoogleSyncSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	// Without a broker the worker still drains the pending backlog
	var consumer worker.Consumer
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		consumer = amqpClient
	} else {
		logger.Info("AMQP disabled - polling the pending backlog only")
	}

	processor := services.NewSyncProcessor(sqliteRepo, sheetsClient, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	})
	syncWorker := worker.NewSyncWorker(processor, consumer)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := syncWorker.Run(ctx); err != nil {
		logger.Error("Sync worker failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
