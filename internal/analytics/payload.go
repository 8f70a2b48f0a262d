package analytics

import (
	"sort"

	"hoteldash/internal/core"
)

type categoryTotals struct {
	name, code                         string
	revenue, roomsSold                 float64
	previousRevenue, previousRoomsSold float64
	firstSeen                          int
}

type dayTotals struct {
	revenue, roomsSold, previousRevenue, previousRoomsSold float64
}

// AssemblePayload builds the upstream payload for one dimension from daily
// per-category rows. KPI lists are ordered by revenue, highest first; ADR is
// rebuilt as revenue over rooms sold for each period. Fluctuation series
// cover the union of dates, with zeros where a category has no row. Rows
// outside the dimension or failing validation are skipped and logged.
func (e *Engine) AssemblePayload(dimension core.Dimension, rows []core.DailyMetric) core.Payload {
	totals := make(map[string]*categoryTotals)
	daily := make(map[string]map[string]*dayTotals)
	dateSet := make(map[string]struct{})

	for i, row := range rows {
		if row.Dimension != dimension {
			continue
		}
		if err := row.Validate(); err != nil {
			e.logger.Warn("Skipping invalid row", "id", row.ID, "category", row.Category, "error", err)
			continue
		}

		code := row.Code
		if code == "" {
			code = CategoryCode(dimension, row.Category)
		}
		ct, ok := totals[code]
		if !ok {
			ct = &categoryTotals{name: row.Category, code: code, firstSeen: i}
			totals[code] = ct
			daily[code] = make(map[string]*dayTotals)
		}
		ct.revenue += row.Revenue
		ct.roomsSold += row.RoomsSold
		ct.previousRevenue += row.PreviousRevenue
		ct.previousRoomsSold += row.PreviousRoomsSold

		date := row.Date.String()
		dateSet[date] = struct{}{}
		day, ok := daily[code][date]
		if !ok {
			day = &dayTotals{}
			daily[code][date] = day
		}
		day.revenue += row.Revenue
		day.roomsSold += row.RoomsSold
		day.previousRevenue += row.PreviousRevenue
		day.previousRoomsSold += row.PreviousRoomsSold
	}

	categories := make([]*categoryTotals, 0, len(totals))
	for _, ct := range totals {
		categories = append(categories, ct)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].revenue != categories[j].revenue {
			return categories[i].revenue > categories[j].revenue
		}
		return categories[i].firstSeen < categories[j].firstSeen
	})

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	payload := core.Payload{
		KPIs: map[string][]core.CategoryPoint{
			core.MetricRevenue:   make([]core.CategoryPoint, 0, len(categories)),
			core.MetricRoomsSold: make([]core.CategoryPoint, 0, len(categories)),
			core.MetricADR:       make([]core.CategoryPoint, 0, len(categories)),
		},
		FluctuationData: map[string]core.MetricSeries{
			core.MetricRevenue:   {},
			core.MetricRoomsSold: {},
			core.MetricADR:       {},
		},
		Metrics: core.DefaultMetrics(),
	}

	for _, ct := range categories {
		adr, prevADR := ratio(ct.revenue, ct.roomsSold), ratio(ct.previousRevenue, ct.previousRoomsSold)
		payload.KPIs[core.MetricRevenue] = append(payload.KPIs[core.MetricRevenue], kpi(ct, ct.revenue, ct.previousRevenue))
		payload.KPIs[core.MetricRoomsSold] = append(payload.KPIs[core.MetricRoomsSold], kpi(ct, ct.roomsSold, ct.previousRoomsSold))
		payload.KPIs[core.MetricADR] = append(payload.KPIs[core.MetricADR], kpi(ct, adr, prevADR))

		revenue := make([]core.SeriesPoint, len(dates))
		rooms := make([]core.SeriesPoint, len(dates))
		adrSeries := make([]core.SeriesPoint, len(dates))
		for i, date := range dates {
			day := daily[ct.code][date]
			if day == nil {
				day = &dayTotals{}
			}
			revenue[i] = core.SeriesPoint{Date: date, Value: day.revenue, PreviousValue: day.previousRevenue}
			rooms[i] = core.SeriesPoint{Date: date, Value: day.roomsSold, PreviousValue: day.previousRoomsSold}
			adrSeries[i] = core.SeriesPoint{
				Date:          date,
				Value:         ratio(day.revenue, day.roomsSold),
				PreviousValue: ratio(day.previousRevenue, day.previousRoomsSold),
			}
		}
		payload.FluctuationData[core.MetricRevenue][ct.name] = revenue
		payload.FluctuationData[core.MetricRoomsSold][ct.name] = rooms
		payload.FluctuationData[core.MetricADR][ct.name] = adrSeries
	}
	return payload
}

// kpi rounds both periods before taking the change so Previous() gives
// back the rounded previous figure.
func kpi(ct *categoryTotals, current, previous float64) core.CategoryPoint {
	return core.CategoryPoint{
		Name:   ct.name,
		Code:   ct.code,
		Value:  RoundValue(current),
		Change: RoundValue(current) - RoundValue(previous),
	}
}

func ratio(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator
}
