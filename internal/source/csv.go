package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"hoteldash/internal/core"
)

// RowError reports a record that could not be converted.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e *RowError) Unwrap() error { return e.Err }

// ReadCSV reads daily rows from a CSV export with a header line. Lines
// starting with '#' are comments. Invalid records are returned as
// RowErrors alongside the valid rows; err is set only when the input
// itself is unreadable.
func ReadCSV(r io.Reader, fallback core.Dimension) ([]core.DailyMetric, []*RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := ParseHeader(header)
	if err != nil {
		return nil, nil, err
	}

	var (
		out     []core.DailyMetric
		invalid []*RowError
	)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line, _ := cr.FieldPos(0)
		if err != nil {
			return out, invalid, fmt.Errorf("line %d: %w", line, err)
		}
		m, err := cols.Row(record, fallback)
		if err != nil {
			invalid = append(invalid, &RowError{Line: line, Err: err})
			continue
		}
		out = append(out, m)
	}
	return out, invalid, nil
}
