package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hoteldash/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row id does not exist.
var ErrNotFound = errors.New("metric row not found")

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// PendingSyncRow is the minimal data needed to queue a row for sync.
type PendingSyncRow struct {
	ID        int64
	Dimension core.Dimension
	Version   int64
	CreatedAt time.Time
}

// SyncStats summarizes the sync state of stored rows.
type SyncStats struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Failed  int64 `json:"failed"`
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const upsertMetric = `
INSERT INTO daily_metrics (
    stay_date, dimension, category, code,
    revenue, rooms_sold, previous_revenue, previous_rooms_sold,
    created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (stay_date, dimension, category) DO UPDATE SET
    code                = excluded.code,
    revenue             = excluded.revenue,
    rooms_sold          = excluded.rooms_sold,
    previous_revenue    = excluded.previous_revenue,
    previous_rooms_sold = excluded.previous_rooms_sold,
    updated_at          = excluded.updated_at,
    version             = daily_metrics.version + 1,
    synced_at           = NULL,
    sync_error          = NULL
RETURNING id`

// SaveMetrics validates and upserts rows in one transaction, keyed by
// date, dimension and category. Updated rows become pending sync again.
// It returns the stored row ids in input order.
func (r *SQLiteRepository) SaveMetrics(ctx context.Context, rows []core.DailyMetric) ([]int64, error) {
	for i, m := range rows {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertMetric)
	if err != nil {
		return nil, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := r.now().Unix()
	ids := make([]int64, 0, len(rows))
	for _, m := range rows {
		var id int64
		err := stmt.QueryRowContext(ctx,
			m.Date.String(), string(m.Dimension), strings.TrimSpace(m.Category), m.Code,
			m.Revenue, m.RoomsSold, m.PreviousRevenue, m.PreviousRoomsSold,
			now, now,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("upsert metric %s/%s/%s: %w", m.Date, m.Dimension, m.Category, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Metrics saved to SQLite", "rows", len(ids))
	return ids, nil
}

const selectMetrics = `
SELECT id, stay_date, dimension, category, code,
       revenue, rooms_sold, previous_revenue, previous_rooms_sold
FROM daily_metrics`

// ListMetrics returns the rows matching the query, ordered by date then id.
func (r *SQLiteRepository) ListMetrics(ctx context.Context, q core.Query) ([]core.DailyMetric, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	query := selectMetrics + " WHERE dimension = ?"
	args := []any{string(q.Dimension)}
	if !q.From.IsZero() {
		query += " AND stay_date >= ?"
		args = append(args, q.From.String())
	}
	if !q.To.IsZero() {
		query += " AND stay_date <= ?"
		args = append(args, q.To.String())
	}
	query += " ORDER BY stay_date, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	return scanMetrics(rows)
}

// GetMetricsByIDs returns the rows with the given ids; missing ids are skipped.
func (r *SQLiteRepository) GetMetricsByIDs(ctx context.Context, ids []int64) ([]core.DailyMetric, error) {
	if len(ids) == 0 {
		return []core.DailyMetric{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, selectMetrics+" WHERE id IN ("+placeholders+") ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("get metrics by ids: %w", err)
	}
	return scanMetrics(rows)
}

// GetMetric retrieves a single row by id.
func (r *SQLiteRepository) GetMetric(ctx context.Context, id int64) (core.DailyMetric, error) {
	rows, err := r.GetMetricsByIDs(ctx, []int64{id})
	if err != nil {
		return core.DailyMetric{}, err
	}
	if len(rows) == 0 {
		return core.DailyMetric{}, ErrNotFound
	}
	return rows[0], nil
}

func scanMetrics(rows *sql.Rows) ([]core.DailyMetric, error) {
	defer rows.Close()

	out := make([]core.DailyMetric, 0)
	for rows.Next() {
		var (
			m         core.DailyMetric
			date      string
			dimension string
		)
		if err := rows.Scan(&m.ID, &date, &dimension, &m.Category, &m.Code,
			&m.Revenue, &m.RoomsSold, &m.PreviousRevenue, &m.PreviousRoomsSold); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse stay date %q for row %d: %w", date, m.ID, err)
		}
		m.Date = d
		m.Dimension = core.Dimension(dimension)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics: %w", err)
	}
	return out, nil
}

// GetPendingSync returns rows that still need to be synced to Google Sheets,
// oldest first.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSyncRow, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, dimension, version, created_at
FROM daily_metrics
WHERE synced_at IS NULL
ORDER BY created_at, id
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync rows: %w", err)
	}
	defer rows.Close()

	pending := make([]PendingSyncRow, 0)
	for rows.Next() {
		var (
			p         PendingSyncRow
			dimension string
			created   int64
		)
		if err := rows.Scan(&p.ID, &dimension, &p.Version, &created); err != nil {
			return nil, fmt.Errorf("scan pending row: %w", err)
		}
		p.Dimension = core.Dimension(dimension)
		p.CreatedAt = time.Unix(created, 0).UTC()
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending rows: %w", err)
	}
	return pending, nil
}

// MarkSynced marks a row as successfully synced
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE daily_metrics SET synced_at = ?, sync_error = NULL WHERE id = ?`, r.now().Unix(), id)
	if err != nil {
		return fmt.Errorf("mark metric synced: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("mark metric synced %d: %w", id, err)
	}

	slog.DebugContext(ctx, "Metric marked as synced", "id", id)
	return nil
}

// MarkSyncError records a sync failure; the row stays pending.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	res, err := r.db.ExecContext(ctx, `UPDATE daily_metrics SET sync_error = ? WHERE id = ?`, msg, id)
	if err != nil {
		return fmt.Errorf("mark metric sync error: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("mark metric sync error %d: %w", id, err)
	}

	slog.WarnContext(ctx, "Metric marked with sync error", "id", id, "error", msg)
	return nil
}

// SyncStats counts stored, pending and failed rows.
func (r *SQLiteRepository) SyncStats(ctx context.Context) (SyncStats, error) {
	var s SyncStats
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(CASE WHEN synced_at IS NULL THEN 1 ELSE 0 END), 0),
       COALESCE(SUM(CASE WHEN synced_at IS NULL AND sync_error IS NOT NULL THEN 1 ELSE 0 END), 0)
FROM daily_metrics`).Scan(&s.Total, &s.Pending, &s.Failed)
	if err != nil {
		return SyncStats{}, fmt.Errorf("sync stats: %w", err)
	}
	return s, nil
}

// DeleteMetrics removes rows of a dimension in the date range and returns
// how many were deleted.
func (r *SQLiteRepository) DeleteMetrics(ctx context.Context, q core.Query) (int64, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	query := `DELETE FROM daily_metrics WHERE dimension = ?`
	args := []any{string(q.Dimension)}
	if !q.From.IsZero() {
		query += " AND stay_date >= ?"
		args = append(args, q.From.String())
	}
	if !q.To.IsZero() {
		query += " AND stay_date <= ?"
		args = append(args, q.To.String())
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete metrics: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete metrics rows affected: %w", err)
	}
	slog.InfoContext(ctx, "Metrics deleted", "dimension", q.Dimension, "rows", n)
	return n, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
