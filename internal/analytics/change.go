package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

// maxChange bounds percent changes so near-zero denominators cannot blow up
// downstream sorting and formatting.
const maxChange = 1000.0

// PercentChange returns the percentage change of current against the
// previous period, where previous = current - delta. A nil result means the
// change is undefined: non-finite inputs, or both periods zero.
//
// A zero previous period saturates to +100 (or -100 when current is
// negative) instead of dividing by zero. A zero current period is -100.
func PercentChange(current, delta float64) *float64 {
	previous := current - delta
	if !isFinite(current) || !isFinite(previous) {
		return nil
	}

	var pct float64
	switch {
	case previous == 0 && current == 0:
		return nil
	case previous == 0:
		pct = 100
		if current < 0 {
			pct = -100
		}
	case current == 0:
		pct = -100
	default:
		raw := delta / previous * 100
		if !isFinite(raw) {
			return nil
		}
		pct = round1(clamp(raw, -maxChange, maxChange))
	}
	return &pct
}

// TableChange is PercentChange for table cells: undefined changes render as 0.
func TableChange(current, delta float64) float64 {
	if pct := PercentChange(current, delta); pct != nil {
		return *pct
	}
	return 0
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// round1 rounds half away from zero to one decimal place.
func round1(v float64) float64 {
	return roundPlaces(v, 1)
}

func roundPlaces(v float64, places int32) float64 {
	if !isFinite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundValue rounds a display value: integers from 100 up, two decimals below.
func RoundValue(v float64) float64 {
	if v >= 100 {
		return roundPlaces(v, 0)
	}
	return roundPlaces(v, 2)
}
