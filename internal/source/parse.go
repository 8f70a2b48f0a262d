package source

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hoteldash/internal/core"
)

const (
	colDate              = "date"
	colDimension         = "dimension"
	colCategory          = "category"
	colCode              = "code"
	colRevenue           = "revenue"
	colRoomsSold         = "roomssold"
	colPreviousRevenue   = "previousrevenue"
	colPreviousRoomsSold = "previousroomssold"
)

var columnAliases = map[string]string{
	"date":              colDate,
	"staydate":          colDate,
	"day":               colDate,
	"dimension":         colDimension,
	"category":          colCategory,
	"name":              colCategory,
	"code":              colCode,
	"revenue":           colRevenue,
	"roomssold":         colRoomsSold,
	"rooms":             colRoomsSold,
	"previousrevenue":   colPreviousRevenue,
	"prevrevenue":       colPreviousRevenue,
	"previousroomssold": colPreviousRoomsSold,
	"prevroomssold":     colPreviousRoomsSold,
	"previousrooms":     colPreviousRoomsSold,
}

// ErrMissingColumn is returned when a header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Columns maps canonical column names to their index in a record.
type Columns map[string]int

// ParseHeader resolves a header row. Matching ignores case, spaces,
// underscores and dashes.
func ParseHeader(header []string) (Columns, error) {
	cols := Columns{}
	for i, h := range header {
		key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(h)))
		if canonical, ok := columnAliases[key]; ok {
			if _, dup := cols[canonical]; !dup {
				cols[canonical] = i
			}
		}
	}
	var missing []string
	for _, required := range []string{colDate, colCategory, colRevenue, colRoomsSold} {
		if _, ok := cols[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

// Row converts one record into a validated DailyMetric. fallback is used
// when the record carries no dimension.
func (c Columns) Row(record []string, fallback core.Dimension) (core.DailyMetric, error) {
	date, err := core.ParseDate(c.get(record, colDate))
	if err != nil {
		return core.DailyMetric{}, fmt.Errorf("date %q: %w", c.get(record, colDate), err)
	}

	m := core.DailyMetric{
		Date:      date,
		Dimension: fallback,
		Category:  c.get(record, colCategory),
		Code:      c.get(record, colCode),
	}
	if dim := c.get(record, colDimension); dim != "" {
		m.Dimension = core.Dimension(strings.ToLower(dim))
	}

	for col, dst := range map[string]*float64{
		colRevenue:           &m.Revenue,
		colRoomsSold:         &m.RoomsSold,
		colPreviousRevenue:   &m.PreviousRevenue,
		colPreviousRoomsSold: &m.PreviousRoomsSold,
	} {
		v, err := ParseNumber(c.get(record, col))
		if err != nil {
			return core.DailyMetric{}, fmt.Errorf("%s: %w", col, err)
		}
		*dst = v
	}

	if err := m.Validate(); err != nil {
		return core.DailyMetric{}, err
	}
	return m, nil
}

func (c Columns) get(record []string, col string) string {
	idx, ok := c[col]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// ParseNumber parses a spreadsheet number. It accepts a currency sign,
// thousands separators and a decimal comma. Blank cells read as 0.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("€", "", " ", "", "\u00a0", "", "'", "").Replace(s)
	if s == "" {
		return 0, nil
	}

	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		// 1.234,56
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		// 1,234.56
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && strings.Count(s, ",") > 1:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}
