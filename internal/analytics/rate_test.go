package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"hoteldash/internal/core"
)

func TestRebuildRate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		parts []core.RateComponents
		want  float64
	}{
		{"equal weights", []core.RateComponents{rc(100, 10), rc(50, 5)}, 10},
		{"weighted, not averaged", []core.RateComponents{rc(100, 5), rc(100, 20)}, 8},
		{"no parts", nil, 0},
		{"zero denominator", []core.RateComponents{rc(100, 0)}, 0},
		{"negative denominator sum", []core.RateComponents{rc(100, -5)}, 0},
		{"non-finite skipped", []core.RateComponents{rc(math.NaN(), 3), rc(90, 9), rc(10, math.Inf(1))}, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RebuildRate(tc.parts))
		})
	}
}

func rc(numerator, denominator float64) core.RateComponents {
	return core.RateComponents{Numerator: numerator, Denominator: denominator}
}
