package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"hoteldash/internal/backend"
	"hoteldash/internal/core"
	"hoteldash/internal/log"
	"hoteldash/internal/services"
)

const readyTimeout = 2 * time.Second

func defaultHandler() slog.Handler {
	return slog.Default().Handler()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w, r)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	pinger, ok := s.backend.(backend.Pinger)
	if !ok {
		NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", "error", err)
		ServiceUnavailableError("backend not ready").Write(w, r)
		return
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w, r)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.Stats()).Write(w, r)
}

type metricEntry struct {
	Key string `json:"key"`
	core.MetricDefinition
}

// handleMetrics lists the metric catalogue in key order.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	catalogue := core.DefaultMetrics()
	out := make([]metricEntry, 0, len(catalogue))
	for key, def := range catalogue {
		out = append(out, metricEntry{Key: key, MetricDefinition: def})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	NewJSONResponse().Data(out).Write(w, r)
}

func (s *Server) handlePayload(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r)
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	p, err := s.views.Payload(r.Context(), q)
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	NewJSONResponse().Data(p).Write(w, r)
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r)
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	limit, err := ParseLimit(r.URL.Query(), "limit")
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	out, err := s.views.Distribution(r.Context(), q, ParseMetric(r.URL.Query()), limit)
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	NewJSONResponse().Data(out).Write(w, r)
}

func (s *Server) handleFluctuation(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r)
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	out, err := s.views.Fluctuation(r.Context(), q, ParseMetric(r.URL.Query()))
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	NewJSONResponse().Data(out).Write(w, r)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r)
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	out, err := s.views.Table(r.Context(), q, ParseMetricList(r.URL.Query().Get("metrics")))
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	NewJSONResponse().Data(out).Write(w, r)
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	q, err := ParseQuery(r)
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	values := r.URL.Query()
	mode, err := core.ParseRankMode(sanitizeInput(values.Get("mode")))
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	limit, err := ParseLimit(values, "limit")
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	out, err := s.views.Ranking(r.Context(), q, ParseMetric(values), mode, limit)
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	NewJSONResponse().Data(out).Write(w, r)
}

// handleOverview returns the distribution of one metric for every dimension.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	from, to, err := ParseRange(r.URL.Query())
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	out, err := s.views.Overview(r.Context(), from, to, ParseMetric(r.URL.Query()))
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	NewJSONResponse().Data(out).Write(w, r)
}

// handleCompute runs a view over a caller-supplied payload. Nothing is
// fetched or cached.
func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")
	if !core.IsView(view) {
		NotFoundError(fmt.Sprintf("unknown view %q", view)).Write(w, r)
		return
	}

	var req ComputeRequest
	if err := DecodeJSON(w, r, &req, s.maxBodyBytes); err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	if req.Metric == "" {
		req.Metric = core.MetricRevenue
	}
	if req.Limit <= 0 {
		req.Limit = s.defaultTopN
	}

	out, err := s.compute(view, req)
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	NewJSONResponse().Data(out).Write(w, r)
}

func (s *Server) compute(view string, req ComputeRequest) (any, error) {
	p := req.Payload
	switch view {
	case core.ViewDistribution:
		if _, ok := p.KPIs[req.Metric]; !ok {
			return nil, fmt.Errorf("%w: %q", services.ErrUnknownMetric, req.Metric)
		}
		return s.engine.Distribution(p, req.Metric, req.Limit), nil

	case core.ViewFluctuation:
		if _, ok := p.FluctuationData[req.Metric]; !ok {
			return nil, fmt.Errorf("%w: %q", services.ErrUnknownMetric, req.Metric)
		}
		return s.engine.Fluctuation(p, req.Metric), nil

	case core.ViewTable:
		for _, m := range req.Metrics {
			if _, ok := p.KPIs[m]; !ok {
				return nil, fmt.Errorf("%w: %q", services.ErrUnknownMetric, m)
			}
		}
		return s.engine.Table(p, req.Metrics...), nil

	case core.ViewRanking:
		mode, err := core.ParseRankMode(req.Mode)
		if err != nil {
			return nil, err
		}
		if _, ok := p.KPIs[req.Metric]; !ok {
			return nil, fmt.Errorf("%w: %q", services.ErrUnknownMetric, req.Metric)
		}
		return s.engine.Ranking(p, req.Metric, mode, req.Limit), nil
	}
	return nil, errors.New("unreachable view " + view)
}

// handleIngest stores daily rows and announces them to the sync worker.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ingest == nil {
		NotImplementedError("the configured backend is read-only").Write(w, r)
		return
	}

	rows, err := ParseIngestBody(w, r, s.maxBodyBytes)
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}

	result, err := s.ingest.Ingest(r.Context(), rows)
	if err != nil {
		FromError(r, err).Write(w, r)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(result).Write(w, r)
}
