package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hoteldash/internal/amqp"
	"hoteldash/internal/core"
	"hoteldash/internal/services"
)

// Consumer delivers sync messages until ctx is cancelled.
type Consumer interface {
	ConsumeMetricsSync(ctx context.Context, handler func(context.Context, *amqp.MetricsSyncMessage) error) error
}

// SyncWorker mirrors ingested rows from SQLite to Google Sheets
type SyncWorker struct {
	processor *services.SyncProcessor
	consumer  Consumer
}

// NewSyncWorker creates a worker. A nil consumer leaves only the periodic
// backlog sync running.
func NewSyncWorker(processor *services.SyncProcessor, consumer Consumer) *SyncWorker {
	return &SyncWorker{
		processor: processor,
		consumer:  consumer,
	}
}

// HandleSyncMessage processes a single metrics sync message from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.MetricsSyncMessage) error {
	if dim := core.Dimension(msg.Dimension); msg.Dimension != "" && !dim.IsValid() {
		slog.WarnContext(ctx, "Sync message with unknown dimension", "dimension", msg.Dimension)
	}

	slog.InfoContext(ctx, "Processing sync message",
		"rows", len(msg.IDs),
		"dimension", msg.Dimension,
		"published_at", msg.Timestamp)

	if _, err := w.processor.SyncRows(ctx, msg.IDs); err != nil {
		return fmt.Errorf("sync rows to sheets: %w", err)
	}
	return nil
}

// StartupSyncCheck syncs every pending row before consumption starts.
// This recovers from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	total := 0
	for {
		n, err := w.processor.ProcessPending(ctx)
		if err != nil {
			return fmt.Errorf("startup sync check: %w", err)
		}
		total += n
		if n == 0 {
			break
		}
	}

	if total == 0 {
		slog.InfoContext(ctx, "No pending rows found on startup")
	} else {
		slog.InfoContext(ctx, "Startup sync completed", "synced", total)
	}
	return nil
}

// Run performs the startup check, starts the backlog loop and consumes
// messages until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context) error {
	if err := w.StartupSyncCheck(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed startup sync check", "error", err)
		// Don't exit - continue with normal operation
	}

	if err := w.processor.Start(ctx); err != nil {
		return fmt.Errorf("start sync processor: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := w.processor.Stop(stopCtx); err != nil {
			slog.WarnContext(ctx, "Sync processor did not stop cleanly", "error", err)
		}
	}()

	if w.consumer == nil {
		slog.InfoContext(ctx, "Skipping AMQP message consumption - no consumer configured")
		<-ctx.Done()
		return nil
	}

	err := w.consumer.ConsumeMetricsSync(ctx, w.HandleSyncMessage)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume sync messages: %w", err)
	}
	return nil
}
