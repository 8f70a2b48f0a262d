package source

import (
	"context"

	"hoteldash/internal/core"
)

// Ports for outbound adapters.
type (
	// MetricsReader loads the daily rows feeding a dashboard panel.
	MetricsReader interface {
		ListMetrics(ctx context.Context, q core.Query) ([]core.DailyMetric, error)
	}

	// MetricsWriter stores daily rows and returns their ids in input order.
	MetricsWriter interface {
		SaveMetrics(ctx context.Context, rows []core.DailyMetric) ([]int64, error)
	}

	// MetricsSyncer mirrors stored rows to an external sheet.
	MetricsSyncer interface {
		AppendMetrics(ctx context.Context, rows []core.DailyMetric) (rowRef string, err error)
	}
)
