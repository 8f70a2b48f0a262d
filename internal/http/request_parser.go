// Package http serves the dashboard views as a JSON API.
//
// This file implements utilities for parsing and validating HTTP request data:
// query parameters shared by every view and the JSON/CSV request bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"hoteldash/internal/core"
	"hoteldash/internal/source"
)

const maxLimit = 100

var errBadRequest = errors.New("bad request")

// ParseQuery builds the view query from the {dimension} path parameter and
// the optional from/to query parameters.
func ParseQuery(r *http.Request) (core.Query, error) {
	q := core.Query{Dimension: core.Dimension(strings.ToLower(chi.URLParam(r, "dimension")))}
	if !q.Dimension.IsValid() {
		return core.Query{}, fmt.Errorf("%w %q", core.ErrInvalidDimension, chi.URLParam(r, "dimension"))
	}

	from, to, err := ParseRange(r.URL.Query())
	if err != nil {
		return core.Query{}, err
	}
	q.From, q.To = from, to
	return q, q.Validate()
}

// ParseRange reads the from/to dates; missing values leave the range open.
func ParseRange(values url.Values) (core.Date, core.Date, error) {
	from, err := parseDateParam(values, "from")
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	to, err := parseDateParam(values, "to")
	if err != nil {
		return core.Date{}, core.Date{}, err
	}
	if !from.IsZero() && !to.IsZero() && from.After(to.Time) {
		return core.Date{}, core.Date{}, core.ErrInvalidRange
	}
	return from, to, nil
}

func parseDateParam(values url.Values, key string) (core.Date, error) {
	v := strings.TrimSpace(values.Get(key))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %s %q: %w", errBadRequest, key, v, err)
	}
	return d, nil
}

// ParseMetric returns the metric parameter, defaulting to revenue.
func ParseMetric(values url.Values) string {
	if m := sanitizeInput(values.Get("metric")); m != "" {
		return m
	}
	return core.MetricRevenue
}

// ParseMetricList splits a comma separated metrics parameter, dropping
// blanks and duplicates while keeping the caller's order.
func ParseMetricList(raw string) []string {
	parts := lo.Map(strings.Split(raw, ","), func(s string, _ int) string { return sanitizeInput(s) })
	return lo.Uniq(lo.Compact(parts))
}

// ParseLimit reads a positive integer parameter. Missing means 0, which the
// services treat as the configured default.
func ParseLimit(values url.Values, key string) (int, error) {
	v := strings.TrimSpace(values.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxLimit {
		return 0, fmt.Errorf("%w: %s must be an integer between 1 and %d", errBadRequest, key, maxLimit)
	}
	return n, nil
}

// ComputeRequest is the body of POST /api/compute/{view}: a payload in the
// upstream shape plus the view parameters.
type ComputeRequest struct {
	Payload core.Payload `json:"payload"`
	Metric  string       `json:"metric"`
	Metrics []string     `json:"metrics"`
	Limit   int          `json:"limit"`
	Mode    string       `json:"mode"`
}

// DecodeJSON decodes a single JSON value from the body, capped at maxBytes.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, maxBytes)
		}
		return fmt.Errorf("%w: invalid JSON body: %w", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: body must hold a single JSON value", errBadRequest)
	}
	return nil
}

// ingestEnvelope is the object form of an ingest body.
type ingestEnvelope struct {
	Rows []core.DailyMetric `json:"rows"`
}

// ParseIngestBody reads daily rows from a JSON array, a {"rows": [...]}
// object or a text/csv export. CSV records without a dimension column take
// the dimension query parameter. Any invalid row rejects the whole body.
func ParseIngestBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]core.DailyMetric, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/csv" {
		return parseIngestCSV(w, r, maxBytes)
	}

	var raw json.RawMessage
	if err := DecodeJSON(w, r, &raw, maxBytes); err != nil {
		return nil, err
	}

	var rows []core.DailyMetric
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case strings.HasPrefix(trimmed, "["):
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("%w: invalid rows: %w", errBadRequest, err)
		}
	case strings.HasPrefix(trimmed, "{"):
		var env ingestEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("%w: invalid rows: %w", errBadRequest, err)
		}
		rows = env.Rows
	default:
		return nil, fmt.Errorf("%w: body must be a JSON array or object", errBadRequest)
	}

	for i := range rows {
		rows[i].Category = sanitizeInput(rows[i].Category)
		rows[i].Code = sanitizeInput(rows[i].Code)
		if err := rows[i].Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return rows, nil
}

func parseIngestCSV(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]core.DailyMetric, error) {
	fallback := core.Dimension(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("dimension"))))
	if fallback != "" && !fallback.IsValid() {
		return nil, fmt.Errorf("%w %q", core.ErrInvalidDimension, fallback)
	}

	body := http.MaxBytesReader(w, r.Body, maxBytes)
	rows, invalid, err := source.ReadCSV(body, fallback)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, maxBytes)
		}
		if errors.Is(err, source.ErrMissingColumn) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: invalid CSV: %w", errBadRequest, err)
	}
	if len(invalid) > 0 {
		return nil, invalid[0]
	}
	_, _ = io.Copy(io.Discard, body)
	return rows, nil
}
