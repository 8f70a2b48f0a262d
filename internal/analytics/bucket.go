package analytics

import (
	"math"
	"sort"

	"hoteldash/internal/core"
)

// othersCode is the join key of the synthetic Others bucket.
const othersCode = "others"

// Bucket keeps the n highest-valued records and folds the rest into one
// Others record, then recomputes every returned record's share of the total.
//
// Records are de-duplicated by join key, first occurrence winning. Values at
// or below zero rank as 1 so empty categories still get a visible slot, but
// keep their true value. For sum metrics Others carries the sum of the
// folded values; for rate metrics it is rebuilt from aux, keyed by code or
// name, falling back to the mean of the folded values when aux has no
// entries for them. In both cases Others.Change is the mean of the folded
// changes. n <= 0 folds everything.
func (e *Engine) Bucket(records []core.CategoryPoint, n int, kind core.MetricKind, aux map[string]core.RateComponents) []core.BucketedRecord {
	ranked := e.dedupe(records)
	if len(ranked) == 0 {
		return []core.BucketedRecord{}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return rankValue(ranked[i].Value) > rankValue(ranked[j].Value)
	})

	if n < 0 {
		n = 0
	}
	head, rest := ranked, []core.CategoryPoint(nil)
	if len(ranked) > n {
		head, rest = ranked[:n], ranked[n:]
	}

	out := make([]core.BucketedRecord, 0, len(head)+1)
	for _, p := range head {
		out = append(out, core.BucketedRecord{CategoryPoint: p})
	}
	if len(rest) > 0 {
		out = append(out, e.others(rest, kind, aux))
	}

	applyPercentages(out)
	return out
}

// dedupe drops repeated join keys and non-finite figures, returning a copy.
func (e *Engine) dedupe(records []core.CategoryPoint) []core.CategoryPoint {
	seen := make(map[string]struct{}, len(records))
	out := make([]core.CategoryPoint, 0, len(records))
	for _, p := range records {
		key := p.JoinKey()
		if _, dup := seen[key]; dup {
			e.logger.Warn("Duplicate category dropped", "key", key, "name", p.Name)
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p.Sanitize())
	}
	return out
}

func rankValue(v float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return 1
	}
	return v
}

func (e *Engine) others(rest []core.CategoryPoint, kind core.MetricKind, aux map[string]core.RateComponents) core.BucketedRecord {
	var valueSum, changeSum float64
	parts := make([]core.RateComponents, 0, len(rest))
	for _, p := range rest {
		valueSum += p.Value
		changeSum += p.Change
		if c, ok := lookupComponents(aux, p); ok {
			parts = append(parts, c)
		}
	}
	count := float64(len(rest))

	rec := core.BucketedRecord{
		CategoryPoint: core.CategoryPoint{
			Name:   core.OthersName,
			Code:   othersCode,
			Change: changeSum / count,
		},
		Others:  true,
		Members: len(rest),
	}
	if len(parts) > 0 {
		sum := sumComponents(parts)
		rec.Components = &sum
	}

	switch {
	case kind == core.RateKind && len(parts) > 0:
		if len(parts) < len(rest) {
			e.logger.Warn("Rate components missing for folded categories",
				"folded", len(rest), "with_components", len(parts))
		}
		rec.Value = RebuildRate(parts)
	case kind == core.RateKind:
		e.logger.Warn("No rate components for Others bucket, averaging rates", "folded", len(rest))
		rec.Value = valueSum / count
	default:
		rec.Value = valueSum
	}
	return rec
}

func lookupComponents(aux map[string]core.RateComponents, p core.CategoryPoint) (core.RateComponents, bool) {
	if aux == nil {
		return core.RateComponents{}, false
	}
	if p.Code != "" {
		if c, ok := aux[p.Code]; ok {
			return c, true
		}
	}
	c, ok := aux[p.Name]
	return c, ok
}

// applyPercentages sets each record's share of the returned total, all zero
// when the total is zero or not finite.
func applyPercentages(records []core.BucketedRecord) {
	var total float64
	for _, r := range records {
		total += r.Value
	}
	for i := range records {
		if total == 0 || !isFinite(total) {
			records[i].Percentage = 0
			continue
		}
		records[i].Percentage = round1(records[i].Value / total * 100)
	}
}

// RateAux builds the per-category components of a rate metric from its
// numerator and denominator KPI lists, keyed by both code and name.
func RateAux(numerators, denominators []core.CategoryPoint) map[string]core.RateComponents {
	den := make(map[string]float64, len(denominators))
	for _, p := range denominators {
		if _, ok := den[p.JoinKey()]; !ok {
			den[p.JoinKey()] = p.Value
		}
	}

	aux := make(map[string]core.RateComponents, len(numerators)*2)
	for _, p := range numerators {
		d, ok := den[p.JoinKey()]
		if !ok {
			continue
		}
		c := core.RateComponents{Numerator: p.Value, Denominator: d}
		if p.Code != "" {
			if _, exists := aux[p.Code]; !exists {
				aux[p.Code] = c
			}
		}
		if _, exists := aux[p.Name]; !exists {
			aux[p.Name] = c
		}
	}
	return aux
}
