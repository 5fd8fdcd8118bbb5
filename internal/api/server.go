// Package api serves supplier searches over HTTP.
//
// Routes:
//
//	GET /health                 liveness, 204
//	GET /suppliers              available and loaded suppliers
//	GET /search?q=<term>        fan a term out to the loaded suppliers
//	GET /metrics                Prometheus metrics, when configured
//
// /search accepts supplier=<id> to search one supplier first, only=true to
// search it alone, and limit=<n> to cap the parts listed per supplier.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/partscout/pkg/supplier"
)

// DefaultSearchTimeout bounds how long /search waits for the slowest supplier.
const DefaultSearchTimeout = 30 * time.Second

// Server bundles the resources the handlers share.
type Server struct {
	reg           *supplier.Registry
	disp          *supplier.Dispatcher
	logger        *log.Logger
	metrics       http.Handler
	maxResults    int
	searchTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithMaxResults sets the default number of parts listed per supplier.
// Zero lists all of them.
func WithMaxResults(n int) Option {
	return func(s *Server) { s.maxResults = n }
}

// WithSearchTimeout sets how long /search waits for results.
func WithSearchTimeout(d time.Duration) Option {
	return func(s *Server) { s.searchTimeout = d }
}

// New creates a Server. The dispatcher must have been set up with
// SetupCompanies before requests arrive.
func New(reg *supplier.Registry, disp *supplier.Dispatcher, opts ...Option) *Server {
	s := &Server{
		reg:           reg,
		disp:          disp,
		logger:        log.Default(),
		searchTimeout: DefaultSearchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		s.requestID,
		s.logRequests,
		middleware.Recoverer,
		middleware.NoCache,
	)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/suppliers", s.listSuppliers)
	r.Get("/search", s.search)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("API server started", "addr", addr)

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("API server stopped")
	return nil
}
