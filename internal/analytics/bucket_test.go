package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoteldash/internal/core"
)

func channels() []core.CategoryPoint {
	return []core.CategoryPoint{
		{Name: "Booking.com", Value: 80, Change: 10},
		{Name: "Expedia", Value: 70, Change: 5},
		{Name: "Direct", Value: 60, Change: -4},
		{Name: "Airbnb", Value: 50, Change: 2},
		{Name: "Agoda", Value: 40, Change: 1},
		{Name: "Corporate", Value: 30, Change: 3},
		{Name: "Wholesale", Value: 20, Change: 6},
		{Name: "Walk-in", Value: 10, Change: 9},
	}
}

func TestBucketFoldsTailIntoOthers(t *testing.T) {
	t.Parallel()

	got := newTestEngine().Bucket(channels(), 5, core.SumKind, nil)

	require.Len(t, got, 6)
	others := got[5]
	assert.True(t, others.Others)
	assert.Equal(t, core.OthersName, others.Name)
	assert.Equal(t, 60.0, others.Value)
	assert.Equal(t, 6.0, others.Change)
	assert.Equal(t, 3, others.Members)
	assert.Nil(t, others.Components)

	var total float64
	for _, r := range got {
		total += r.Percentage
	}
	assert.InDelta(t, 100.0, total, 0.1*float64(len(got)))

	assert.Equal(t, 22.2, got[0].Percentage)
	assert.Equal(t, 16.7, others.Percentage)
}

func TestBucketKeepsSmallInputs(t *testing.T) {
	t.Parallel()

	input := channels()[:5]
	got := newTestEngine().Bucket(input, 5, core.SumKind, nil)

	require.Len(t, got, 5)
	for i, r := range got {
		assert.False(t, r.Others)
		assert.Equal(t, input[i].Name, r.Name)
		assert.Equal(t, input[i].Value, r.Value)
	}
}

func TestBucketSortsDescending(t *testing.T) {
	t.Parallel()

	input := []core.CategoryPoint{
		{Name: "small", Value: 1},
		{Name: "big", Value: 100},
		{Name: "mid", Value: 10},
	}
	got := newTestEngine().Bucket(input, 5, core.SumKind, nil)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"big", "mid", "small"}, []string{got[0].Name, got[1].Name, got[2].Name})
}

func TestBucketZeroValuesRankAsSentinel(t *testing.T) {
	t.Parallel()

	input := []core.CategoryPoint{
		{Name: "empty", Value: 0},
		{Name: "tiny", Value: 0.5},
		{Name: "some", Value: 2},
	}
	got := newTestEngine().Bucket(input, 3, core.SumKind, nil)

	require.Len(t, got, 3)
	assert.Equal(t, "some", got[0].Name)
	assert.Equal(t, "empty", got[1].Name)
	assert.Equal(t, 0.0, got[1].Value, "true value is kept")
	assert.Equal(t, "tiny", got[2].Name)
}

func TestBucketRateRebuildsOthers(t *testing.T) {
	t.Parallel()

	records := []core.CategoryPoint{
		{Name: "Suite", Code: "suite", Value: 200, Change: 20},
		{Name: "Double", Code: "double", Value: 20, Change: 2},
		{Name: "Single", Value: 5, Change: -1},
	}
	aux := map[string]core.RateComponents{
		"suite":  {Numerator: 2000, Denominator: 10},
		"double": {Numerator: 100, Denominator: 5},
		"Single": {Numerator: 100, Denominator: 20},
	}

	got := newTestEngine().Bucket(records, 1, core.RateKind, aux)

	require.Len(t, got, 2)
	others := got[1]
	assert.Equal(t, 8.0, others.Value, "weighted 200/25, not the 12.5 rate average")
	assert.Equal(t, 0.5, others.Change)
	require.NotNil(t, others.Components)
	assert.Equal(t, core.RateComponents{Numerator: 200, Denominator: 25}, *others.Components)
	assert.Equal(t, 96.2, got[0].Percentage)
	assert.Equal(t, 3.8, others.Percentage)
}

func TestBucketRateWithoutAuxAverages(t *testing.T) {
	t.Parallel()

	engine, logs := newCapturingEngine()
	records := []core.CategoryPoint{
		{Name: "Suite", Value: 200},
		{Name: "Double", Value: 20},
		{Name: "Single", Value: 5},
	}

	got := engine.Bucket(records, 1, core.RateKind, nil)

	require.Len(t, got, 2)
	assert.Equal(t, 12.5, got[1].Value)
	assert.Nil(t, got[1].Components)
	assert.Contains(t, logs.String(), "No rate components for Others bucket")
}

func TestBucketNonPositiveNFoldsEverything(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, -3} {
		got := newTestEngine().Bucket(channels(), n, core.SumKind, nil)
		require.Len(t, got, 1)
		assert.True(t, got[0].Others)
		assert.Equal(t, 360.0, got[0].Value)
		assert.Equal(t, 100.0, got[0].Percentage)
		assert.Equal(t, 8, got[0].Members)
	}
}

func TestBucketDeduplicates(t *testing.T) {
	t.Parallel()

	engine, logs := newCapturingEngine()
	records := []core.CategoryPoint{
		{Name: "Italy", Code: "it", Value: 10},
		{Name: "Italia", Code: "it", Value: 99},
		{Name: "Direct", Value: 5},
		{Name: "Direct", Value: 7},
	}

	got := engine.Bucket(records, 5, core.SumKind, nil)

	require.Len(t, got, 2)
	assert.Equal(t, "Italy", got[0].Name)
	assert.Equal(t, 10.0, got[0].Value)
	assert.Equal(t, 5.0, got[1].Value)
	assert.Contains(t, logs.String(), "Duplicate category dropped")
}

func TestBucketEmptyAndZeroTotals(t *testing.T) {
	t.Parallel()

	empty := newTestEngine().Bucket(nil, 5, core.SumKind, nil)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	zeros := newTestEngine().Bucket([]core.CategoryPoint{{Name: "a"}, {Name: "b"}}, 5, core.SumKind, nil)
	require.Len(t, zeros, 2)
	for _, r := range zeros {
		assert.Equal(t, 0.0, r.Percentage)
	}
}

func TestBucketSanitizesNonFinite(t *testing.T) {
	t.Parallel()

	records := []core.CategoryPoint{
		{Name: "bad", Value: math.NaN(), Change: math.Inf(1)},
		{Name: "good", Value: 10},
	}
	got := newTestEngine().Bucket(records, 5, core.SumKind, nil)

	require.Len(t, got, 2)
	for _, r := range got {
		assert.False(t, math.IsNaN(r.Value) || math.IsNaN(r.Change) || math.IsNaN(r.Percentage))
	}
	assert.Equal(t, 100.0, got[0].Percentage)
}

func TestRateAux(t *testing.T) {
	t.Parallel()

	revenue := []core.CategoryPoint{{Name: "Italy", Code: "it", Value: 1000}, {Name: "Direct", Value: 300}, {Name: "Orphan", Value: 1}}
	rooms := []core.CategoryPoint{{Name: "Italy", Code: "it", Value: 10}, {Name: "Direct", Value: 3}}

	aux := RateAux(revenue, rooms)

	assert.Equal(t, core.RateComponents{Numerator: 1000, Denominator: 10}, aux["it"])
	assert.Equal(t, core.RateComponents{Numerator: 1000, Denominator: 10}, aux["Italy"])
	assert.Equal(t, core.RateComponents{Numerator: 300, Denominator: 3}, aux["Direct"])
	assert.NotContains(t, aux, "Orphan")
}
