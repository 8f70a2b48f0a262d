package analytics

import (
	"sort"

	"hoteldash/internal/core"
)

// Reshape pivots per-category series into one entry per date, each holding
// the {current, previous} pair of every category under its normalized key.
//
// The date sequence is taken from the first non-empty category in name
// order and kept in input order. A category without a point at some index is
// left out of that entry rather than reported as zero. When two names
// normalize to the same key the first in name order wins.
func (e *Engine) Reshape(series core.MetricSeries) []core.TimeSeriesEntry {
	names := sortedNames(series)

	var canonical []core.SeriesPoint
	for _, name := range names {
		if len(series[name]) > 0 {
			canonical = series[name]
			break
		}
	}
	if len(canonical) == 0 {
		return []core.TimeSeriesEntry{}
	}

	owners := make(map[string]string, len(names))
	for _, name := range names {
		key := NormalizeKey(name)
		if first, taken := owners[key]; taken {
			e.logger.Warn("Category key collision, keeping first", "key", key, "kept", first, "dropped", name)
			continue
		}
		owners[key] = name
		if n := len(series[name]); n != len(canonical) {
			e.logger.Warn("Misaligned series", "category", name, "length", n, "expected", len(canonical))
		}
	}

	out := make([]core.TimeSeriesEntry, len(canonical))
	for i, point := range canonical {
		categories := make(map[string]core.CategoryPair, len(owners))
		for key, name := range owners {
			points := series[name]
			if i >= len(points) {
				continue
			}
			categories[key] = core.CategoryPair{
				Current:  finite(points[i].Value),
				Previous: finite(points[i].PreviousValue),
			}
		}
		out[i] = core.TimeSeriesEntry{Date: point.Date, Categories: categories}
	}
	return out
}

func sortedNames(series core.MetricSeries) []string {
	names := series.Categories()
	sort.Strings(names)
	return names
}

func finite(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}
