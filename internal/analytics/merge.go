package analytics

import (
	"sort"

	"hoteldash/internal/core"
)

// Merge joins per-metric category lists into one row per category. Names
// are matched exactly. Every metric in metricKeys (all map keys, sorted,
// when none are given) appears on every row with its value, previous value
// and table change; a category missing from a metric gets zeros for it.
//
// Rows come out in first-appearance order while walking the metrics; callers
// must not rely on any particular order.
func (e *Engine) Merge(perMetric map[string][]core.CategoryPoint, metricKeys ...string) []core.TableRow {
	keys := metricKeys
	if len(keys) == 0 {
		keys = make([]string, 0, len(perMetric))
		for k := range perMetric {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	byMetric := make(map[string]map[string]core.CategoryPoint, len(keys))
	var order []string
	seen := make(map[string]struct{})
	for _, metric := range keys {
		points := make(map[string]core.CategoryPoint, len(perMetric[metric]))
		for _, p := range perMetric[metric] {
			if _, dup := points[p.Name]; dup {
				e.logger.Warn("Duplicate category in metric", "metric", metric, "name", p.Name)
				continue
			}
			points[p.Name] = p.Sanitize()
			if _, ok := seen[p.Name]; !ok {
				seen[p.Name] = struct{}{}
				order = append(order, p.Name)
			}
		}
		byMetric[metric] = points
	}

	rows := make([]core.TableRow, 0, len(order))
	for _, name := range order {
		values := make(map[string]float64, len(keys)*3)
		for _, metric := range keys {
			p, ok := byMetric[metric][name]
			if !ok {
				values[metric] = 0
				values[core.PreviousKey(metric)] = 0
				values[core.ChangeKey(metric)] = 0
				continue
			}
			values[metric] = p.Value
			values[core.PreviousKey(metric)] = p.Previous()
			values[core.ChangeKey(metric)] = TableChange(p.Value, p.Change)
		}
		rows = append(rows, core.TableRow{Category: name, Values: values})
	}
	return rows
}
