// Package server provides the HTTP server and routing for ratechart.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/ratechart/internal/config"
	"github.com/aristath/ratechart/internal/di"
	chartshandlers "github.com/aristath/ratechart/internal/modules/charts/handlers"
	"github.com/aristath/ratechart/pkg/embedded"
)

const requestTimeout = 60 * time.Second

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container // DI container with all services
	Port      int
	DevMode   bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	devMode        bool
	systemHandlers *SystemHandlers
	logHandlers    *LogHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	c := cfg.Container

	systemHandlers := NewSystemHandlers(
		cfg.Log,
		cfg.Config.DataDir,
		c.ChartService,
		c.ViewportHub,
		c.Scheduler,
		c.CacheDB,
	)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		container:      c,
		devMode:        cfg.DevMode,
		systemHandlers: systemHandlers,
		logHandlers:    NewLogHandlers(cfg.Log, cfg.Config.LogDir(), filepath.Base(cfg.Config.LogFile())),
	}

	s.setupMiddleware()
	s.setupRoutes()

	// No WriteTimeout: streams hold their response open. Regular routes are
	// bounded by the Timeout middleware instead.
	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware shared by every route
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Long-lived streams stay outside the timeout and compression group
	s.router.Route("/api", func(r chi.Router) {
		eventsStreamHandler := NewEventsStreamHandler(s.container.EventBus, s.cfg.LogDir(), s.log)
		r.Get("/events/stream", eventsStreamHandler.ServeHTTP)

		streamHandler := chartshandlers.NewStreamHandler(
			s.container.ChartService,
			s.container.ViewportHub,
			s.container.EventManager,
			s.log,
		)
		r.Get("/charts/stream", streamHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			s.useRequestMiddleware(r)

			chartshandlers.NewHandler(s.container.ChartService, s.log).RegisterRoutes(r)

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/logs/list", s.logHandlers.HandleListLogs)
				r.Get("/logs", s.logHandlers.HandleGetLogs)
				r.Get("/logs/errors", s.logHandlers.HandleGetErrors)
			})
		})
	})

	s.router.Group(func(r chi.Router) {
		s.useRequestMiddleware(r)
		r.Get("/health", s.handleHealth)
		r.Get("/", s.handleDashboard)
	})
}

func (s *Server) useRequestMiddleware(r chi.Router) {
	r.Use(middleware.Timeout(requestTimeout))
	if !s.devMode {
		r.Use(middleware.Compress(5))
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// handleDashboard serves the viewer page from the embedded filesystem
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(embedded.Files, "static/index.html")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read embedded index.html")
		http.Error(w, "Frontend not available", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to write index.html response")
	}
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
