package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"hoteldash/internal/core"
	"hoteldash/internal/source"
)

const (
	csvSeedFile  = "daily_metrics.csv"
	jsonSeedFile = "daily_metrics.json"
)

var (
	_ source.MetricsReader = (*Store)(nil)
	_ source.MetricsWriter = (*Store)(nil)
	_ source.MetricsSyncer = (*Store)(nil)
)

type rowKey struct {
	date      string
	dimension core.Dimension
	category  string
}

type Store struct {
	mu     sync.Mutex
	rows   []core.DailyMetric
	index  map[rowKey]int
	nextID int64
	synced int
}

func New(rows []core.DailyMetric) *Store {
	s := &Store{index: map[rowKey]int{}}
	if _, err := s.SaveMetrics(context.Background(), rows); err != nil {
		// Seeds are validated row by row in NewFromFiles; fall back to an empty store.
		slog.Warn("Discarding invalid memory seed", "error", err)
		s.rows, s.index, s.nextID = nil, map[rowKey]int{}, 0
	}
	return s
}

// NewFromFiles loads daily_metrics.csv and daily_metrics.json from base.
// Invalid rows are skipped with a warning. When no seed file exists the
// store is filled with a deterministic demo data set.
func NewFromFiles(base string) *Store {
	var rows []core.DailyMetric
	found := false

	if f, err := os.Open(filepath.Join(base, csvSeedFile)); err == nil {
		found = true
		parsed, err := readCSV(f)
		f.Close()
		if err != nil {
			slog.Warn("Failed to read CSV seed", "path", filepath.Join(base, csvSeedFile), "error", err)
		}
		rows = append(rows, parsed...)
	}

	if data, err := os.ReadFile(filepath.Join(base, jsonSeedFile)); err == nil {
		found = true
		parsed, err := readJSON(data)
		if err != nil {
			slog.Warn("Failed to read JSON seed", "path", filepath.Join(base, jsonSeedFile), "error", err)
		}
		rows = append(rows, parsed...)
	}

	if !found {
		rows = DemoRows(core.NewDate(2025, 1, 1), 14)
	}
	return New(rows)
}

// ListMetrics returns the rows of the query's dimension and range, by date.
func (s *Store) ListMetrics(_ context.Context, q core.Query) ([]core.DailyMetric, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.DailyMetric, 0)
	for _, m := range s.rows {
		if m.Dimension == q.Dimension && q.Contains(m.Date) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

// SaveMetrics upserts rows keyed by date, dimension and category.
func (s *Store) SaveMetrics(_ context.Context, rows []core.DailyMetric) ([]int64, error) {
	for i, m := range rows {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(rows))
	for _, m := range rows {
		m.Category = strings.TrimSpace(m.Category)
		key := rowKey{date: m.Date.String(), dimension: m.Dimension, category: m.Category}
		if idx, ok := s.index[key]; ok {
			m.ID = s.rows[idx].ID
			s.rows[idx] = m
		} else {
			s.nextID++
			m.ID = s.nextID
			s.index[key] = len(s.rows)
			s.rows = append(s.rows, m)
		}
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// AppendMetrics records the rows as synced and returns a synthetic row reference.
func (s *Store) AppendMetrics(_ context.Context, rows []core.DailyMetric) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced += len(rows)
	return fmt.Sprintf("mem:%d", s.synced), nil
}

// Synced returns how many rows have been passed to AppendMetrics.
func (s *Store) Synced() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synced
}

func readCSV(r io.Reader) ([]core.DailyMetric, error) {
	rows, invalid, err := source.ReadCSV(r, core.BookingChannel)
	for _, rowErr := range invalid {
		slog.Warn("Skipping invalid seed row", "line", rowErr.Line, "error", rowErr.Err)
	}
	return rows, err
}

func readJSON(data []byte) ([]core.DailyMetric, error) {
	var raw []core.DailyMetric
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode json seed: %w", err)
	}
	out := make([]core.DailyMetric, 0, len(raw))
	for i, m := range raw {
		if err := m.Validate(); err != nil {
			slog.Warn("Skipping invalid seed row", "index", i, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
