package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"hoteldash/internal/analytics"
	"hoteldash/internal/cache"
	"hoteldash/internal/core"
	"hoteldash/internal/log"
	"hoteldash/internal/source"
)

var (
	// ErrUnknownMetric is returned for a metric missing from the payload catalogue.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrSourceUnavailable wraps failures of the configured data source.
	ErrSourceUnavailable = errors.New("data source unavailable")
)

// ViewConfig tunes ViewService.
type ViewConfig struct {
	CacheSize    int
	CacheTTL     time.Duration
	FetchTimeout time.Duration
	DefaultTopN  int
}

// DefaultViewConfig returns sensible defaults
func DefaultViewConfig() ViewConfig {
	return ViewConfig{
		CacheSize:    256,
		CacheTTL:     5 * time.Minute,
		FetchTimeout: 10 * time.Second,
		DefaultTopN:  5,
	}
}

// ViewService loads payloads from a source and computes dashboard views.
// Payloads are cached per query and concurrent loads of the same query
// share one fetch.
type ViewService struct {
	reader  source.MetricsReader
	engine  *analytics.Engine
	payload *cache.LRUCache[core.Payload]
	group   singleflight.Group
	// generation counts invalidations; fetches started under an older
	// generation are not cached. mu orders Invalidate against cache fills.
	mu         sync.Mutex
	generation atomic.Uint64
	config     ViewConfig
	logger  *log.StructuredLogger
}

func NewViewService(reader source.MetricsReader, engine *analytics.Engine, logger *log.Logger, config ViewConfig) *ViewService {
	if engine == nil {
		engine = analytics.NewEngine(logger)
	}
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentView, Handler: defaultHandler()})
	}
	if config.DefaultTopN <= 0 {
		config.DefaultTopN = DefaultViewConfig().DefaultTopN
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultViewConfig().FetchTimeout
	}
	return &ViewService{
		reader:  reader,
		engine:  engine,
		payload: cache.NewLRUCache[core.Payload](config.CacheSize, config.CacheTTL),
		config:  config,
		logger:  log.NewStructuredLogger(logger),
	}
}

// Engine exposes the analytics engine for computing views over caller-supplied payloads.
func (s *ViewService) Engine() *analytics.Engine {
	return s.engine
}

// Cache returns the payload cache so it can be registered for cleanup.
func (s *ViewService) Cache() *cache.LRUCache[core.Payload] {
	return s.payload
}

// Invalidate drops every cached payload. Loads already in flight finish
// for their callers but neither fill the cache nor serve later callers.
func (s *ViewService) Invalidate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation.Add(1)
	return s.payload.Purge()
}

// Payload returns the assembled payload for q.
func (s *ViewService) Payload(ctx context.Context, q core.Query) (core.Payload, error) {
	p, _, err := s.load(ctx, q)
	return p, err
}

// load reports whether the payload came from the cache.
func (s *ViewService) load(ctx context.Context, q core.Query) (core.Payload, bool, error) {
	if err := q.Validate(); err != nil {
		return core.Payload{}, false, err
	}

	key := q.Key()
	if p, ok := s.payload.Get(key); ok {
		return p, true, nil
	}

	gen := s.generation.Load()
	flightKey := strconv.FormatUint(gen, 10) + "|" + key
	v, err, _ := s.group.Do(flightKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.FetchTimeout)
		defer cancel()

		rows, err := s.reader.ListMetrics(fetchCtx, q)
		if err != nil {
			s.logger.LogError(ctx, "Data source fetch failed", err, log.OpList,
				log.NewFields().WithQuery(q.Dimension.String(), q.From.String(), q.To.String()))
			return core.Payload{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		p := s.engine.AssemblePayload(q.Dimension, rows)
		if !s.store(gen, key, p) {
			s.group.Forget(flightKey)
		}
		return p, nil
	})
	if err != nil {
		return core.Payload{}, false, err
	}
	return v.(core.Payload), false, nil
}

// store caches p unless an invalidation happened since gen.
func (s *ViewService) store(gen uint64, key string, p core.Payload) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation.Load() != gen {
		return false
	}
	s.payload.Set(key, p)
	return true
}

// Distribution returns the top-n categories of metric plus an Others bucket.
// n <= 0 selects the configured default.
func (s *ViewService) Distribution(ctx context.Context, q core.Query, metric string, n int) ([]core.BucketedRecord, error) {
	p, cached, err := s.payloadWithMetric(ctx, q, metric)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = s.config.DefaultTopN
	}
	out := s.engine.Distribution(p, metric, n)
	s.logger.LogViewComputed(ctx, core.ViewDistribution, metric, q.Dimension.String(), len(out), cached)
	return out, nil
}

// Fluctuation returns the per-date series of metric and its totals.
func (s *ViewService) Fluctuation(ctx context.Context, q core.Query, metric string) (core.FluctuationView, error) {
	p, cached, err := s.payloadWithMetric(ctx, q, metric)
	if err != nil {
		return core.FluctuationView{}, err
	}
	out := s.engine.Fluctuation(p, metric)
	s.logger.LogViewComputed(ctx, core.ViewFluctuation, metric, q.Dimension.String(), len(out.Entries), cached)
	return out, nil
}

// Table merges the given metrics into one row per category. No metrics
// selects every metric of the catalogue.
func (s *ViewService) Table(ctx context.Context, q core.Query, metrics []string) ([]core.TableRow, error) {
	p, cached, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics {
		if _, ok := p.Metrics[m]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
		}
	}
	out := s.engine.Table(p, metrics...)
	s.logger.LogViewComputed(ctx, core.ViewTable, "", q.Dimension.String(), len(out), cached)
	return out, nil
}

// Ranking orders the categories of metric by mode.
func (s *ViewService) Ranking(ctx context.Context, q core.Query, metric string, mode core.RankMode, limit int) ([]core.RankedRecord, error) {
	if !mode.IsValid() {
		return nil, core.ErrInvalidRankMode
	}
	p, cached, err := s.payloadWithMetric(ctx, q, metric)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.config.DefaultTopN
	}
	out := s.engine.Ranking(p, metric, mode, limit)
	s.logger.LogViewComputed(ctx, core.ViewRanking, metric, q.Dimension.String(), len(out), cached)
	return out, nil
}

// Overview computes the distribution of metric for every dimension
// concurrently. The first failing dimension cancels the rest.
func (s *ViewService) Overview(ctx context.Context, from, to core.Date, metric string) (map[core.Dimension][]core.BucketedRecord, error) {
	dims := core.Dimensions()
	results := make([][]core.BucketedRecord, len(dims))

	g, gctx := errgroup.WithContext(ctx)
	for i, dim := range dims {
		g.Go(func() error {
			out, err := s.Distribution(gctx, core.Query{Dimension: dim, From: from, To: to}, metric, s.config.DefaultTopN)
			if err != nil {
				return fmt.Errorf("%s: %w", dim, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[core.Dimension][]core.BucketedRecord, len(dims))
	for i, dim := range dims {
		out[dim] = results[i]
	}
	return out, nil
}

func (s *ViewService) payloadWithMetric(ctx context.Context, q core.Query, metric string) (core.Payload, bool, error) {
	p, cached, err := s.load(ctx, q)
	if err != nil {
		return core.Payload{}, false, err
	}
	if _, ok := p.Metrics[metric]; !ok {
		return core.Payload{}, false, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	return p, cached, nil
}
