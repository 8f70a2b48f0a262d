package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"hoteldash/internal/core"
	"hoteldash/internal/log"
	"hoteldash/internal/source"
)

// ErrNoRows is returned when an ingest request carries no rows.
var ErrNoRows = errors.New("no rows to ingest")

// Publisher announces stored rows to the sync worker.
type Publisher interface {
	PublishMetricsSync(ctx context.Context, ids []int64, dimension string) error
}

// IngestResult reports what an ingest call stored.
type IngestResult struct {
	IDs       []int64 `json:"ids"`
	Rows      int     `json:"rows"`
	Published int     `json:"published"`
}

// IngestService orchestrates row ingestion across the store and AMQP
type IngestService struct {
	writer    source.MetricsWriter
	publisher Publisher
	logger    *log.StructuredLogger

	mu    sync.Mutex
	hooks []func()
}

// NewIngestService wires a writer and an optional publisher. A nil
// publisher disables sync messages.
func NewIngestService(writer source.MetricsWriter, publisher Publisher, logger *log.Logger) *IngestService {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentIngest, Handler: defaultHandler()})
	}
	return &IngestService{
		writer:    writer,
		publisher: publisher,
		logger:    log.NewStructuredLogger(logger),
	}
}

// OnIngest registers fn to run after every successful ingest.
func (s *IngestService) OnIngest(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Ingest saves rows locally and publishes one sync message per dimension.
// Publish failures are logged; the rows stay pending for the worker backlog.
func (s *IngestService) Ingest(ctx context.Context, rows []core.DailyMetric) (IngestResult, error) {
	if len(rows) == 0 {
		return IngestResult{}, ErrNoRows
	}

	// Save first (fast, reliable)
	ids, err := s.writer.SaveMetrics(ctx, rows)
	if err != nil {
		return IngestResult{}, fmt.Errorf("save metrics: %w", err)
	}

	s.mu.Lock()
	hooks := append([]func(){}, s.hooks...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}

	result := IngestResult{IDs: ids, Rows: len(ids)}
	for _, group := range groupByDimension(rows, ids) {
		if err := s.publishSyncMessage(ctx, group.ids, group.dimension); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message",
				"dimension", group.dimension, "rows", len(group.ids), "error", err)
			// Don't fail the request - rows are saved locally
			continue
		}
		if s.publisher != nil {
			result.Published++
		}
		s.logger.LogRowsIngested(ctx, group.dimension.String(), len(group.ids), "")
	}

	return result, nil
}

func (s *IngestService) publishSyncMessage(ctx context.Context, ids []int64, dimension core.Dimension) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishMetricsSync(ctx, ids, dimension.String())
}

type dimensionIDs struct {
	dimension core.Dimension
	ids       []int64
}

// groupByDimension keeps dimensions in first-appearance order.
func groupByDimension(rows []core.DailyMetric, ids []int64) []dimensionIDs {
	var groups []dimensionIDs
	index := map[core.Dimension]int{}
	for i, m := range rows {
		if i >= len(ids) {
			break
		}
		idx, ok := index[m.Dimension]
		if !ok {
			idx = len(groups)
			index[m.Dimension] = idx
			groups = append(groups, dimensionIDs{dimension: m.Dimension})
		}
		groups[idx].ids = append(groups[idx].ids, ids[i])
	}
	return groups
}

// Close closes the writer and publisher when they hold resources
func (s *IngestService) Close() error {
	var errs []error

	if c, ok := s.writer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ingest service: %w", errors.Join(errs...))
	}

	return nil
}

func defaultHandler() slog.Handler {
	return slog.Default().Handler()
}
