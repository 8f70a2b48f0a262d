package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoteldash/internal/core"
)

func TestReshapeAlignedSeries(t *testing.T) {
	t.Parallel()

	series := core.MetricSeries{
		"Booking.com": {
			{Date: "2025-01-01", Value: 10, PreviousValue: 8},
			{Date: "2025-01-02", Value: 11, PreviousValue: 9},
			{Date: "2025-01-03", Value: 12, PreviousValue: 10},
		},
		"Direct Sales": {
			{Date: "2025-01-01", Value: 1, PreviousValue: 2},
			{Date: "2025-01-02", Value: 3, PreviousValue: 4},
			{Date: "2025-01-03", Value: 5, PreviousValue: 6},
		},
	}

	got := newTestEngine().Reshape(series)

	require.Len(t, got, 3)
	assert.Equal(t, "2025-01-01", got[0].Date)
	assert.Equal(t, "2025-01-03", got[2].Date)
	for _, entry := range got {
		assert.Len(t, entry.Categories, 2)
	}
	assert.Equal(t, core.CategoryPair{Current: 11, Previous: 9}, got[1].Categories["booking.com"])
	assert.Equal(t, core.CategoryPair{Current: 5, Previous: 6}, got[2].Categories["direct_sales"])
}

func TestReshapeOmitsMissingEntries(t *testing.T) {
	t.Parallel()

	engine, logs := newCapturingEngine()
	series := core.MetricSeries{
		"A": {{Date: "d1", Value: 1}, {Date: "d2", Value: 2}, {Date: "d3", Value: 3}},
		"B": {{Date: "d1", Value: 0}},
	}

	got := engine.Reshape(series)

	require.Len(t, got, 3)
	assert.Contains(t, got[0].Categories, "b", "zero is present, not absent")
	assert.NotContains(t, got[1].Categories, "b")
	assert.NotContains(t, got[2].Categories, "b")
	assert.Contains(t, logs.String(), "Misaligned series")
}

func TestReshapeKeepsInputDateOrder(t *testing.T) {
	t.Parallel()

	series := core.MetricSeries{
		"A": {{Date: "2025-03-01"}, {Date: "2025-01-01"}, {Date: "2025-02-01"}},
	}
	got := newTestEngine().Reshape(series)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"2025-03-01", "2025-01-01", "2025-02-01"}, []string{got[0].Date, got[1].Date, got[2].Date})
}

func TestReshapeKeyCollision(t *testing.T) {
	t.Parallel()

	engine, logs := newCapturingEngine()
	series := core.MetricSeries{
		"Direct":  {{Date: "d1", Value: 1}},
		"direct ": {{Date: "d1", Value: 99}},
	}

	got := engine.Reshape(series)

	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Categories["direct"].Current)
	assert.Contains(t, logs.String(), "Category key collision")
}

func TestReshapeEdgeCases(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()

	empty := engine.Reshape(nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	got := engine.Reshape(core.MetricSeries{
		"A": {},
		"B": {{Date: "d1", Value: math.NaN(), PreviousValue: 4}},
	})
	require.Len(t, got, 1, "empty categories do not set the date sequence")
	assert.Equal(t, core.CategoryPair{Current: 0, Previous: 4}, got[0].Categories["b"])
}
