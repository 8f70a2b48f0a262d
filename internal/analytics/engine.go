// Package analytics holds the aggregation engine behind every dashboard
// panel: percent changes, top-N bucketing with an Others bucket, weighted
// rate rebuilding, time series reshaping and multi-metric table merging.
//
// Every function is pure over its inputs. Bad input degrades to a
// display-safe result and a logged data-quality warning; nothing here
// returns an error or panics.
package analytics

import (
	"log/slog"

	"hoteldash/internal/log"
)

// Engine computes dashboard views and reports data-quality problems.
type Engine struct {
	logger *log.Logger
}

// NewEngine creates an engine logging through logger, or through the
// default slog handler when logger is nil.
func NewEngine(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(log.Config{
			Component: log.ComponentAnalytics,
			Handler:   slog.Default().Handler(),
		})
	}
	return &Engine{logger: logger}
}
