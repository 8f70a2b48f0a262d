package adapters

import (
	"context"

	"hoteldash/internal/core"
	"hoteldash/internal/services"
	"hoteldash/internal/source"
	"hoteldash/internal/storage"
)

var _ source.MetricsReader = (*SQLiteAdapter)(nil)

// SQLiteAdapter serves reads from the SQLite repository and routes writes
// through IngestService so every stored row is announced to the sync worker.
type SQLiteAdapter struct {
	storage *storage.SQLiteRepository
	service *services.IngestService
}

func NewSQLiteAdapter(storage *storage.SQLiteRepository, service *services.IngestService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage: storage,
		service: service,
	}
}

// ListMetrics implements source.MetricsReader
func (a *SQLiteAdapter) ListMetrics(ctx context.Context, q core.Query) ([]core.DailyMetric, error) {
	return a.storage.ListMetrics(ctx, q)
}

// Ingest stores rows and publishes sync messages
func (a *SQLiteAdapter) Ingest(ctx context.Context, rows []core.DailyMetric) (services.IngestResult, error) {
	return a.service.Ingest(ctx, rows)
}

// Ping reports whether the database is reachable
func (a *SQLiteAdapter) Ping(ctx context.Context) error {
	return a.storage.Ping(ctx)
}

// SyncStats reports how many rows are still waiting for the sheet mirror
func (a *SQLiteAdapter) SyncStats(ctx context.Context) (storage.SyncStats, error) {
	return a.storage.SyncStats(ctx)
}
