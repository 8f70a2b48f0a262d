package analytics

import (
	"sort"

	"hoteldash/internal/core"
)

// Rank orders de-duplicated records by value (top, bottom) or by percent
// change (rising, falling) and keeps the first limit of them; limit <= 0
// keeps all. Records with an undefined change sort last in the change modes.
func (e *Engine) Rank(records []core.CategoryPoint, mode core.RankMode, limit int) []core.RankedRecord {
	points := e.dedupe(records)
	ranked := make([]core.RankedRecord, len(points))
	for i, p := range points {
		ranked[i] = core.RankedRecord{CategoryPoint: p, ChangePercent: PercentChange(p.Value, p.Change)}
	}

	var less func(a, b core.RankedRecord) bool
	switch mode {
	case core.RankBottom:
		less = func(a, b core.RankedRecord) bool { return a.Value < b.Value }
	case core.RankRising:
		less = func(a, b core.RankedRecord) bool { return changeBefore(a.ChangePercent, b.ChangePercent, true) }
	case core.RankFalling:
		less = func(a, b core.RankedRecord) bool { return changeBefore(a.ChangePercent, b.ChangePercent, false) }
	default:
		less = func(a, b core.RankedRecord) bool { return a.Value > b.Value }
	}
	sort.SliceStable(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

func changeBefore(a, b *float64, descending bool) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	case descending:
		return *a > *b
	default:
		return *a < *b
	}
}
