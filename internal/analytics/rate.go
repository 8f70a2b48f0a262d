package analytics

import "hoteldash/internal/core"

// RebuildRate recomputes an aggregate rate from its components as
// sum(numerator) / sum(denominator). Averaging per-category rates is wrong
// whenever category volumes differ. Non-finite components are skipped and a
// non-positive denominator sum yields 0.
func RebuildRate(parts []core.RateComponents) float64 {
	sum := sumComponents(parts)
	if sum.Denominator <= 0 {
		return 0
	}
	rate := sum.Numerator / sum.Denominator
	if !isFinite(rate) {
		return 0
	}
	return rate
}

func sumComponents(parts []core.RateComponents) core.RateComponents {
	var sum core.RateComponents
	for _, p := range parts {
		if !isFinite(p.Numerator) || !isFinite(p.Denominator) {
			continue
		}
		sum.Numerator += p.Numerator
		sum.Denominator += p.Denominator
	}
	return sum
}
