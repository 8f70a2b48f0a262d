package core

type (
	// SeriesPoint is one date of a category's fluctuation data.
	SeriesPoint struct {
		Date          string  `json:"date"`
		Value         float64 `json:"value"`
		PreviousValue float64 `json:"previousValue"`
	}

	// MetricSeries maps a category display name to its index-aligned points.
	MetricSeries map[string][]SeriesPoint

	CategoryPair struct {
		Current  float64 `json:"current"`
		Previous float64 `json:"previous"`
	}

	// TimeSeriesEntry is one date with every category present at that index,
	// keyed by normalized category key.
	TimeSeriesEntry struct {
		Date       string                  `json:"date"`
		Categories map[string]CategoryPair `json:"categories"`
	}
)

// Categories returns the series' category names in no particular order.
func (s MetricSeries) Categories() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}
