package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoteldash/internal/core"
)

func samplePayload(t *testing.T) core.Payload {
	t.Helper()
	return newTestEngine().AssemblePayload(core.BookingChannel, sampleRows())
}

func TestDistributionRebuildsRate(t *testing.T) {
	t.Parallel()

	got := newTestEngine().Distribution(samplePayload(t), core.MetricADR, 1)

	require.Len(t, got, 2)
	assert.Equal(t, "Direct", got[0].Name)
	others := got[1]
	assert.True(t, others.Others)
	assert.Equal(t, 100.0, others.Value)
	require.NotNil(t, others.Components)
	assert.Equal(t, core.RateComponents{Numerator: 500, Denominator: 5}, *others.Components)
	assert.Equal(t, 50.0, others.Percentage)
}

func TestDistributionSumMetric(t *testing.T) {
	t.Parallel()

	got := newTestEngine().Distribution(samplePayload(t), core.MetricRevenue, 5)

	require.Len(t, got, 2)
	assert.Equal(t, 75.0, got[0].Percentage)
	assert.Equal(t, 25.0, got[1].Percentage)
}

func TestFluctuationView(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()
	p := samplePayload(t)

	revenue := engine.Fluctuation(p, core.MetricRevenue)
	assert.Equal(t, core.MetricRevenue, revenue.Metric)
	require.Len(t, revenue.Entries, 2)
	assert.Equal(t, core.CategoryPair{Current: 500, Previous: 600}, revenue.Entries[0].Categories["booking.com"])
	assert.Equal(t, []core.SeriesPoint{
		{Date: "2025-01-01", Value: 1500, PreviousValue: 1400},
		{Date: "2025-01-02", Value: 500, PreviousValue: 0},
	}, revenue.Totals)

	adr := engine.Fluctuation(p, core.MetricADR)
	require.Len(t, adr.Totals, 2)
	assert.Equal(t, 100.0, adr.Totals[0].Value)
	assert.InDelta(t, 1400.0/13.0, adr.Totals[0].PreviousValue, 1e-9)
	assert.Equal(t, 0.0, adr.Totals[1].PreviousValue)
}

func TestTableView(t *testing.T) {
	t.Parallel()

	rows := newTestEngine().Table(samplePayload(t))

	require.Len(t, rows, 2)
	byName := rowsByCategory(rows)
	direct := byName["Direct"]
	assert.Equal(t, 87.5, direct.Values["revenueChange"])
	assert.Equal(t, 800.0, direct.Values["revenuePrevious"])
	assert.Len(t, direct.Values, 9)
}

func TestRankingView(t *testing.T) {
	t.Parallel()

	got := newTestEngine().Ranking(samplePayload(t), core.MetricRevenue, core.RankRising, 1)

	require.Len(t, got, 1)
	assert.Equal(t, "Direct", got[0].Name)
	require.NotNil(t, got[0].ChangePercent)
	assert.Equal(t, 87.5, *got[0].ChangePercent)
}
