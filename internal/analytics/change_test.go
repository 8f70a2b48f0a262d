package analytics

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoteldash/internal/log"
)

func newTestEngine() *Engine {
	return NewEngine(log.New(log.Config{
		Component: log.ComponentAnalytics,
		Handler:   slog.NewTextHandler(io.Discard, nil),
	}))
}

func newCapturingEngine() (*Engine, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewEngine(log.New(log.Config{
		Component: log.ComponentAnalytics,
		Handler:   slog.NewTextHandler(&buf, nil),
	})), &buf
}

func TestPercentChange(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		current, delta float64
		want           *float64
	}{
		{"both periods zero", 0, 0, nil},
		{"previous zero, current positive", 5, 5, ptr(100)},
		{"previous zero, current negative", -5, -5, ptr(-100)},
		{"current zero", 0, -5, ptr(-100)},
		{"regular growth", 150, 50, ptr(50)},
		{"regular decline", 50, -50, ptr(-50)},
		{"rounded to one decimal", 10, 1, ptr(11.1)},
		{"clamped high", 1001, 1000, ptr(1000)},
		{"clamped low", -10, -11, ptr(-1000)},
		{"no change", 100, 0, ptr(0)},
		{"NaN current", math.NaN(), 1, nil},
		{"infinite delta", 10, math.Inf(1), nil},
		{"infinite current", math.Inf(-1), 0, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PercentChange(tc.current, tc.delta)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tc.want, *got, 1e-9)
		})
	}
}

func TestPercentChangeAlwaysFinite(t *testing.T) {
	t.Parallel()

	values := []float64{
		0, 1, -1, 0.0001, -0.0001, 1e-300, 1e300, -1e300, math.MaxFloat64, -math.MaxFloat64,
		math.SmallestNonzeroFloat64, math.NaN(), math.Inf(1), math.Inf(-1), 42.5, 1000,
	}
	for _, current := range values {
		for _, delta := range values {
			var got *float64
			require.NotPanics(t, func() { got = PercentChange(current, delta) })
			if got == nil {
				continue
			}
			assert.False(t, math.IsNaN(*got) || math.IsInf(*got, 0), "PercentChange(%v, %v) = %v", current, delta, *got)
			assert.LessOrEqual(t, math.Abs(*got), maxChange)
		}
	}
}

func TestTableChange(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, TableChange(0, 0))
	assert.Equal(t, 0.0, TableChange(math.NaN(), 0))
	assert.Equal(t, 50.0, TableChange(150, 50))
	assert.Equal(t, -100.0, TableChange(0, -5))
}

func TestRoundValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 123.0, RoundValue(123.456))
	assert.Equal(t, 100.0, RoundValue(99.999))
	assert.Equal(t, 12.35, RoundValue(12.345))
	assert.Equal(t, -0.5, RoundValue(-0.5))
	assert.Equal(t, 0.0, RoundValue(math.NaN()))
}

func ptr(v float64) *float64 {
	return &v
}
