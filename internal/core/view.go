package core

import "errors"

const (
	RankTop     RankMode = "top"
	RankBottom  RankMode = "bottom"
	RankRising  RankMode = "rising"
	RankFalling RankMode = "falling"
)

const (
	ViewDistribution = "distribution"
	ViewFluctuation  = "fluctuation"
	ViewTable        = "table"
	ViewRanking      = "ranking"
)

var ErrInvalidRankMode = errors.New("invalid rank mode")

type (
	// RankMode selects how the ranking view orders categories: by value
	// (top, bottom) or by change (rising, falling).
	RankMode string

	RankedRecord struct {
		CategoryPoint
		Rank int `json:"rank"`
		// ChangePercent is nil when the change is undefined.
		ChangePercent *float64 `json:"changePercent"`
	}

	FluctuationView struct {
		Metric  string            `json:"metric"`
		Entries []TimeSeriesEntry `json:"entries"`
		Totals  []SeriesPoint     `json:"totals"`
	}
)

func (m RankMode) IsValid() bool {
	switch m {
	case RankTop, RankBottom, RankRising, RankFalling:
		return true
	default:
		return false
	}
}

// ParseRankMode defaults an empty mode to RankTop.
func ParseRankMode(s string) (RankMode, error) {
	if s == "" {
		return RankTop, nil
	}
	m := RankMode(s)
	if !m.IsValid() {
		return "", ErrInvalidRankMode
	}
	return m, nil
}

// IsView reports whether name is a computable dashboard view.
func IsView(name string) bool {
	switch name {
	case ViewDistribution, ViewFluctuation, ViewTable, ViewRanking:
		return true
	default:
		return false
	}
}
