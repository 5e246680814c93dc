package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"github.com/rs/cors"

	"github.com/spektr-org/sfhousing/dataset"
	"github.com/spektr-org/sfhousing/logger"
	"github.com/spektr-org/sfhousing/render"
	"github.com/spektr-org/sfhousing/report"
)

// ============================================================================
// SERVER — HTTP host for the dashboard
// ============================================================================
// The data context is loaded once and shared by every request. Each
// distinct neighborhood selection builds its own dashboard, which is cached
// for CacheTTL. Only selections of neighborhoods present in the data are
// cached, so the cache is bounded by the data and not by the requests.
// ============================================================================

// Config configures the HTTP host.
type Config struct {
	Addr           string
	CacheTTL       time.Duration
	AllowedOrigins []string

	// Report options applied to every build. A request's neighborhood
	// selection is applied after them.
	Report []report.Option
	Image  render.ImageOptions
}

// Server serves dashboards built from one data context.
type Server struct {
	data    *dataset.Context
	known   map[string]bool // neighborhoods present in data
	cfg     Config
	cache   *cache.Cache
	lggr    logger.Logger
	handler http.Handler
}

// New returns a Server over data.
func New(data *dataset.Context, cfg Config, lggr logger.Logger) *Server {
	if lggr == nil {
		lggr = logger.Nop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		data:  data,
		known: make(map[string]bool),
		cfg:   cfg,
		cache: cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		lggr:  lggr.Named("server"),
	}

	for _, n := range data.Neighborhoods() {
		s.known[n] = true
	}

	r := mux.NewRouter()
	r.Use(s.recovery)
	r.Use(s.logging)
	s.routes(r)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Origin"},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:         86400,
	})
	s.handler = corsHandler.Handler(r)
	return s
}

func (s *Server) routes(r *mux.Router) {
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/charts", s.handleCharts).Methods(http.MethodGet)
	api.HandleFunc("/charts/{id}", s.handleChart).Methods(http.MethodGet)

	r.HandleFunc("/charts/{id:[a-z0-9-]+}.{format:png|svg}", s.handleImage).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

// Handler returns the root handler with CORS applied.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.lggr.Infow("Serving dashboard", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("serve %s: %w", s.cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.lggr.Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ── Dashboards ───────────────────────────────────────────────────────────

// dashboard returns the dashboard for the request's neighborhood
// selection, building it on a cache miss.
func (s *Server) dashboard(r *http.Request) *report.Dashboard {
	selection := selectedNeighborhoods(r)
	cacheable := s.allKnown(selection)
	key := cacheKey("dashboard", selection)

	if cacheable {
		if cached, ok := s.cache.Get(key); ok {
			s.lggr.Debugw("Dashboard cache hit", "key", key)
			return cached.(*report.Dashboard)
		}
	}

	opts := append([]report.Option{report.WithLogger(s.lggr)}, s.cfg.Report...)
	opts = append(opts, report.WithNeighborhoods(selection...))
	d := report.Build(s.data, opts...)
	if !cacheable {
		s.lggr.Debugw("Dashboard not cached, selection has unknown neighborhoods", "neighborhoods", selection)
		return d
	}
	s.cache.Set(key, d, cache.DefaultExpiration)
	return d
}

func (s *Server) allKnown(names []string) bool {
	for _, n := range names {
		if !s.known[n] {
			return false
		}
	}
	return true
}

// selectedNeighborhoods reads the repeatable neighborhood parameter in
// request order. Blank and repeated values are ignored; no selection keeps
// the configured defaults.
func selectedNeighborhoods(r *http.Request) []string {
	var names []string
	for _, n := range r.URL.Query()["neighborhood"] {
		if n = strings.TrimSpace(n); n != "" && !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	return names
}

// cacheKey query-encodes the selection, so no name can forge another
// selection's key.
func cacheKey(prefix string, selection []string) string {
	return prefix + "?" + url.Values{"neighborhood": selection}.Encode()
}
