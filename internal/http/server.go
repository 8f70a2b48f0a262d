package http

import (
	"context"
	"net/http"
	"net/netip"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"hoteldash/internal/analytics"
	"hoteldash/internal/backend"
	"hoteldash/internal/log"
	"hoteldash/internal/middleware/ratelimit"
	"hoteldash/internal/middleware/security"
	"hoteldash/internal/middleware/trace"
	"hoteldash/internal/services"
)

const defaultMaxBodyBytes = 4 << 20

// Options tune the server. Zero values select defaults.
type Options struct {
	// Backend is pinged by /readyz when it implements backend.Pinger
	Backend            backend.Backend
	RateLimitPerMinute int
	MaxBodyBytes       int64
	DefaultTopN        int

	// TrustedProxies may set forwarding headers; empty trusts loopback
	// and private ranges
	TrustedProxies []netip.Prefix
	Logger         *log.Logger
}

type Server struct {
	http.Server
	views   *services.ViewService
	ingest  *services.IngestService
	engine  *analytics.Engine
	backend backend.Backend

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	maxBodyBytes int64
	defaultTopN  int
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. A nil ingest service makes POST /api/ingest answer 501.
func NewServer(addr string, views *services.ViewService, ingest *services.IngestService, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.DefaultTopN <= 0 {
		opts.DefaultTopN = services.DefaultViewConfig().DefaultTopN
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Component: log.ComponentHTTP, Handler: defaultHandler()})
	}

	detector := security.NewDetector(opts.TrustedProxies)
	s := &Server{
		views:        views,
		ingest:       ingest,
		engine:       views.Engine(),
		backend:      opts.Backend,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:     detector,
		tracer:       trace.NewMiddleware(detector.ExtractClientIP),
		maxBodyBytes: opts.MaxBodyBytes,
		defaultTopN:  opts.DefaultTopN,
	}

	r := chi.NewRouter()
	r.Use(
		s.tracer.Middleware,
		log.Middleware(opts.Logger.WithComponent(log.ComponentHTTP)),
		trace.LoggerMiddleware,
		chimw.Recoverer,
		detector.Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no route for "+r.URL.Path).Write(w, r)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError("").Write(w, r)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/statsz", s.handleStats)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			TooManyRequestsError().Write(w, r)
		}))

		r.Get("/metrics", s.handleMetrics)
		r.Get("/overview", s.handleOverview)
		r.Post("/compute/{view}", s.handleCompute)
		r.Post("/ingest", s.handleIngest)

		r.Route("/{dimension}", func(r chi.Router) {
			r.Get("/payload", s.handlePayload)
			r.Get("/distribution", s.handleDistribution)
			r.Get("/fluctuation", s.handleFluctuation)
			r.Get("/table", s.handleTable)
			r.Get("/ranking", s.handleRanking)
		})
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	// Ensure shutdown logic runs only once
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// Stats reports request, security and rate limiting counters.
func (s *Server) Stats() map[string]any {
	return map[string]any{
		"requests":   s.tracer.GetMetrics(),
		"security":   s.detector.GetMetrics(),
		"rate_limit": s.limiter.GetMetrics(),
		"proxies":    s.detector.TrustedProxies(),
	}
}
