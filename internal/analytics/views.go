package analytics

import "hoteldash/internal/core"

// Distribution buckets one metric of the payload into the top n plus
// Others. Rate metrics are rebuilt from the revenue and rooms sold lists.
func (e *Engine) Distribution(p core.Payload, metric string, n int) []core.BucketedRecord {
	kind := p.KindOf(metric)
	var aux map[string]core.RateComponents
	if kind == core.RateKind {
		aux = RateAux(p.KPIs[core.MetricRevenue], p.KPIs[core.MetricRoomsSold])
	}
	return e.Bucket(p.KPIs[metric], n, kind, aux)
}

// Fluctuation reshapes one metric's series and adds the all-categories line.
// The totals line is only meaningful for sum metrics; rate metrics get the
// per-date rate rebuilt from the revenue and rooms sold series instead.
func (e *Engine) Fluctuation(p core.Payload, metric string) core.FluctuationView {
	series := p.FluctuationData[metric]
	view := core.FluctuationView{
		Metric:  metric,
		Entries: e.Reshape(series),
	}
	if p.KindOf(metric) == core.RateKind {
		view.Totals = e.rateTotals(p.FluctuationData[core.MetricRevenue], p.FluctuationData[core.MetricRoomsSold])
	} else {
		view.Totals = e.Totals(series)
	}
	return view
}

func (e *Engine) rateTotals(numerators, denominators core.MetricSeries) []core.SeriesPoint {
	num, den := e.Totals(numerators), e.Totals(denominators)
	n := min(len(num), len(den))
	out := make([]core.SeriesPoint, n)
	for i := 0; i < n; i++ {
		out[i] = core.SeriesPoint{
			Date:          num[i].Date,
			Value:         ratio(num[i].Value, den[i].Value),
			PreviousValue: ratio(num[i].PreviousValue, den[i].PreviousValue),
		}
	}
	return out
}

// Table merges the requested KPI lists, or all of them, into table rows.
func (e *Engine) Table(p core.Payload, metrics ...string) []core.TableRow {
	if len(metrics) == 0 {
		metrics = p.MetricKeys()
	}
	return e.Merge(p.KPIs, metrics...)
}

// Ranking ranks one metric's categories.
func (e *Engine) Ranking(p core.Payload, metric string, mode core.RankMode, limit int) []core.RankedRecord {
	return e.Rank(p.KPIs[metric], mode, limit)
}
