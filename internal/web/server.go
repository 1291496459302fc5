// Package web provides the HTTP API and preview pages over in-memory
// datasets.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/tabprep/internal/config"
	"github.com/JonMunkholm/tabprep/internal/source"
	"github.com/JonMunkholm/tabprep/internal/table"
	"github.com/JonMunkholm/tabprep/internal/web/middleware"
)

// Persister saves a table under a name. Implemented by store.Store.
type Persister interface {
	Save(ctx context.Context, name string, t *table.Table) (int64, error)
}

// Deps are the optional collaborators of the server.
type Deps struct {
	// Store persists datasets; nil disables the persist endpoint.
	Store Persister

	// Resolver opens s3:// locations for the import endpoint. Nil disables
	// imports.
	Resolver *source.Resolver
}

// Server is the HTTP server for the data preparation service.
type Server struct {
	cfg      *config.Config
	deps     Deps
	datasets *Registry
	limiter  *Limiter
	metrics  *metrics
	validate *validator.Validate
	router   *chi.Mux
	server   *http.Server
	stopRate func()
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:      cfg,
		deps:     deps,
		datasets: NewRegistry(cfg.Dataset.MaxCount),
		limiter:  NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		validate: newValidator(),
		router:   chi.NewRouter(),
	}
	s.metrics = newMetrics(s.datasets.Len, s.limiter)
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(s.metrics.middleware)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.stopRate = limiter.stop
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.handler())

	// Pages
	s.router.Get("/datasets/{id}", s.handlePreviewPage)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Route("/datasets", func(r chi.Router) {
			r.Get("/", s.handleListDatasets)
			r.Post("/", s.handleUpload)
			r.Post("/import", s.handleImport)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDataset)
				r.Delete("/", s.handleDeleteDataset)
				r.Get("/missing", s.handleMissing)
				r.Get("/export", s.handleExport)

				r.Post("/clean", s.handleClean)
				r.Post("/fill", s.handleFill)
				r.Post("/filter", s.handleFilter)
				r.Post("/transform", s.handleTransform)
				r.Post("/bins", s.handleBins)
				r.Post("/summarize", s.handleSummarize)
				r.Post("/pipeline", s.handlePipeline)
				r.Post("/persist", s.handlePersist)
			})
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then waits for in-flight uploads and
// pipeline runs to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopRate != nil {
		s.stopRate()
	}
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	if err := s.limiter.WaitForDrain(ctx); err != nil {
		active, _ := s.limiter.Status()
		return fmt.Errorf("drain %d running operations: %w", active, err)
	}
	return nil
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				// Preview pages carry no scripts.
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'none'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter implements a simple fixed-window limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
	done     chan struct{}
	once     sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every window until stopped.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists || time.Since(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: time.Now()}
		return true
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(middleware.ClientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, ErrorResponse{
				Error:   "rate limit exceeded",
				Message: "Too many requests",
				Action:  "Wait a minute and try again",
				Code:    "SRV004",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
