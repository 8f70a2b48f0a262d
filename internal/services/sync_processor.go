package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hoteldash/internal/core"
	"hoteldash/internal/source"
	"hoteldash/internal/storage"
)

// SyncStore is the part of the SQLite repository the processor needs.
type SyncStore interface {
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingSyncRow, error)
	GetMetricsByIDs(ctx context.Context, ids []int64) ([]core.DailyMetric, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64, cause error) error
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending rows (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of rows to sync per poll cycle (default: 50)
	BatchSize int
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    50,
	}
}

// SyncProcessor mirrors stored rows to the sheet syncer. It serves both
// AMQP messages (SyncRows) and the pending backlog (ProcessPending), the
// backup path for lost messages.
type SyncProcessor struct {
	store  SyncStore
	syncer source.MetricsSyncer
	config SyncProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(store SyncStore, syncer source.MetricsSyncer, config SyncProcessorConfig) *SyncProcessor {
	defaults := DefaultSyncProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	return &SyncProcessor{
		store:  store,
		syncer: syncer,
		config: config,
	}
}

// SyncRows appends the rows with the given ids to the sheet in one call
// and marks them synced. On failure every row records the error and stays
// pending. Ids that no longer exist are skipped.
func (p *SyncProcessor) SyncRows(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	rows, err := p.store.GetMetricsByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("get metrics from storage: %w", err)
	}
	if len(rows) < len(ids) {
		slog.WarnContext(ctx, "Some sync rows no longer exist", "requested", len(ids), "found", len(rows))
	}
	if len(rows) == 0 {
		return 0, nil
	}

	ref, err := p.syncer.AppendMetrics(ctx, rows)
	if err != nil {
		for _, m := range rows {
			if markErr := p.store.MarkSyncError(ctx, m.ID, err); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", m.ID, "error", markErr)
			}
		}
		return 0, fmt.Errorf("append metrics to sheets: %w", err)
	}

	synced := 0
	for _, m := range rows {
		if err := p.store.MarkSynced(ctx, m.ID); err != nil {
			slog.WarnContext(ctx, "Failed to mark metric as synced", "id", m.ID, "error", err)
			// Don't fail the batch - sync actually succeeded
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Synced metrics to Google Sheets",
		"rows", synced,
		"sheets_ref", ref)

	return synced, nil
}

// ProcessPending syncs one batch of the oldest pending rows.
func (p *SyncProcessor) ProcessPending(ctx context.Context) (int, error) {
	pending, err := p.store.GetPendingSync(ctx, p.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending rows: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.DebugContext(ctx, "Processing pending rows", "count", len(pending))

	ids := make([]int64, len(pending))
	for i, row := range pending {
		ids[i] = row.ID
	}
	return p.SyncRows(ctx, ids)
}

// Start begins the backlog loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	// Signal stop
	close(stopCh)

	// Wait for completion or context cancellation
	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// runLoop is the main processing loop
func (p *SyncProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Process immediately on startup
	p.drain(ctx, stopCh)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.drain(ctx, stopCh)
		}
	}
}

// drain processes full batches until the backlog is empty or a batch fails.
func (p *SyncProcessor) drain(ctx context.Context, stopCh <-chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		n, err := p.ProcessPending(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to process pending rows", "error", err)
			return
		}
		if n < p.config.BatchSize {
			return
		}
	}
}
