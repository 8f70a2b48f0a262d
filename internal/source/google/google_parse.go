package google

import (
	"fmt"
	"strings"

	"hoteldash/internal/core"
	"hoteldash/internal/source"
)

// parseDailyValues converts a values matrix (as returned by Sheets API)
// into the rows matching q. The first non-empty row is the header. Rows
// without a dimension column take the query's dimension. It also returns
// how many rows were skipped as invalid.
func parseDailyValues(values [][]interface{}, q core.Query) ([]core.DailyMetric, int, error) {
	out := make([]core.DailyMetric, 0)
	start := 0
	for start < len(values) && isBlank(values[start]) {
		start++
	}
	if start == len(values) {
		return out, 0, nil
	}

	cols, err := source.ParseHeader(toStrings(values[start]))
	if err != nil {
		return nil, 0, fmt.Errorf("unexpected daily header: %w", err)
	}

	skipped := 0
	for _, raw := range values[start+1:] {
		if isBlank(raw) {
			continue
		}
		m, err := cols.Row(toStrings(raw), q.Dimension)
		if err != nil {
			skipped++
			continue
		}
		if m.Dimension != q.Dimension || !q.Contains(m.Date) {
			continue
		}
		out = append(out, m)
	}
	return out, skipped, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(row []interface{}) bool {
	for _, v := range row {
		if strings.TrimSpace(fmt.Sprint(v)) != "" {
			return false
		}
	}
	return true
}
