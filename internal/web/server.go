// Package web provides the HTTP server and handlers for the data transformer.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/DataTransformer/internal/config"
	"github.com/JonMunkholm/DataTransformer/internal/core"
	mw "github.com/JonMunkholm/DataTransformer/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the transformer.
type Server struct {
	service *core.Service
	cfg     *config.Config
	metrics http.Handler
	router  *chi.Mux
	server  *http.Server
}

// NewServer wires routes and middleware. metrics may be nil, in which case
// no metrics endpoint is mounted.
func NewServer(service *core.Service, cfg *config.Config, metrics http.Handler) (*Server, error) {
	s := &Server{
		service: service,
		cfg:     cfg,
		metrics: metrics,
		router:  chi.NewRouter(),
	}
	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() error {
	trusted, err := mw.ParseTrustedProxies(s.cfg.Security.TrustedProxies)
	if err != nil {
		return fmt.Errorf("security config: %w", err)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(trusted))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if rl := s.cfg.RateLimit; rl.Enabled {
		limiter := mw.NewRateLimiter(rl.RequestsPerMinute, rl.Burst)
		limiter.OnLimit = func(w http.ResponseWriter, r *http.Request) {
			s.respondError(w, r, core.ErrRateLimited, http.StatusTooManyRequests)
		}
		s.router.Use(limiter.Handler)
	}

	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	return nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Pages
	s.router.Get("/", s.handleIndex)
	s.router.Post("/transform", s.handleTransform)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/process", s.handleProcess)
		r.Post("/convert", s.handleConvert)
	})

	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.Method(http.MethodGet, s.cfg.Metrics.Path, s.metrics)
	}

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, core.ErrRouteNotFound, http.StatusNotFound)
	})
}

// Start listens on the configured address and blocks until the server
// stops. It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	sc := s.cfg.Server
	s.server = &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, then waits for in-flight batches.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.service.WaitForUploads(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses. The CSP allows
// inline styles for the page shell, htmx from unpkg and data: URLs for
// downloads.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy",
					"default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}
