package analytics

import "hoteldash/internal/core"

// AlignSeries truncates every category to the shortest series and replaces
// non-finite figures with zero. Misalignment is logged, never fatal.
func (e *Engine) AlignSeries(series core.MetricSeries) core.MetricSeries {
	out := make(core.MetricSeries, len(series))
	if len(series) == 0 {
		return out
	}

	shortest, longest := -1, 0
	for _, points := range series {
		if shortest < 0 || len(points) < shortest {
			shortest = len(points)
		}
		if len(points) > longest {
			longest = len(points)
		}
	}
	if shortest != longest {
		e.logger.Warn("Misaligned series truncated", "shortest", shortest, "longest", longest, "categories", len(series))
	}

	for name, points := range series {
		aligned := make([]core.SeriesPoint, shortest)
		for i := 0; i < shortest; i++ {
			p := points[i]
			aligned[i] = core.SeriesPoint{
				Date:          p.Date,
				Value:         finite(p.Value),
				PreviousValue: finite(p.PreviousValue),
			}
		}
		out[name] = aligned
	}
	return out
}

// Totals sums every category per date after alignment, dated by the first
// category in name order.
func (e *Engine) Totals(series core.MetricSeries) []core.SeriesPoint {
	aligned := e.AlignSeries(series)
	names := sortedNames(aligned)
	if len(names) == 0 {
		return []core.SeriesPoint{}
	}

	totals := make([]core.SeriesPoint, len(aligned[names[0]]))
	for i, p := range aligned[names[0]] {
		totals[i].Date = p.Date
	}
	for _, name := range names {
		for i, p := range aligned[name] {
			totals[i].Value += p.Value
			totals[i].PreviousValue += p.PreviousValue
		}
	}
	return totals
}
