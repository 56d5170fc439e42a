// Package server exposes the dashboard HTTP API
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/quantdesk/quantdesk/internal/database/repositories"
	"github.com/quantdesk/quantdesk/internal/modules/news"
	"github.com/quantdesk/quantdesk/internal/modules/ranking"
	syncmod "github.com/quantdesk/quantdesk/internal/modules/sync"
	"github.com/quantdesk/quantdesk/internal/modules/timing"
	"github.com/quantdesk/quantdesk/internal/modules/universe"
	"github.com/quantdesk/quantdesk/internal/scheduler"
)

// Config holds server configuration and collaborators
type Config struct {
	Port    int
	DevMode bool
	Log     zerolog.Logger

	Bars      *repositories.BarRepository
	SyncLog   *repositories.SyncLogRepository
	Rankings  *repositories.RankingRepository
	Syncer    *syncmod.Service
	Engine    *ranking.Engine
	Scanner   *timing.Scanner
	Sentiment timing.SentimentFetcher
	Universes *universe.Service
	News      *news.Service
	Schedule  *scheduler.SyncSchedule
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger

	bars      *repositories.BarRepository
	syncLog   *repositories.SyncLogRepository
	rankings  *repositories.RankingRepository
	syncer    *syncmod.Service
	engine    *ranking.Engine
	scanner   *timing.Scanner
	sentiment timing.SentimentFetcher
	universes *universe.Service
	news      *news.Service
	schedule  *scheduler.SyncSchedule
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		bars:      cfg.Bars,
		syncLog:   cfg.SyncLog,
		rankings:  cfg.Rankings,
		syncer:    cfg.Syncer,
		engine:    cfg.Engine,
		scanner:   cfg.Scanner,
		sentiment: cfg.Sentiment,
		universes: cfg.Universes,
		news:      cfg.News,
		schedule:  cfg.Schedule,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	// Sync and backtest calls can run long
	s.router.Use(middleware.Timeout(120 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
			r.Get("/schedule", s.handleSchedule)
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/prices", s.handleSyncPrices)
			r.Post("/fundamentals", s.handleSyncFundamentals)
			r.Get("/status", s.handleSyncStatus)
		})

		r.Route("/rankings", func(r chi.Router) {
			r.Get("/composite", s.handleRankComposite)
			r.Get("/magic-formula", s.handleRankMagicFormula)
			r.Get("/garp", s.handleRankGARP)
		})

		r.Route("/scan", func(r chi.Router) {
			r.Get("/pead", s.handleScanPEAD)
			r.Get("/var-breach", s.handleScanVaRBreach)
			r.Get("/sentiment", s.handleScanSentiment)
		})

		r.Route("/backtest", func(r chi.Router) {
			r.Post("/", s.handleBacktest)
			r.Post("/optimize", s.handleOptimize)
		})

		r.Route("/universes", func(r chi.Router) {
			r.Get("/", s.handleUniverseList)
			r.Get("/{name}", s.handleUniverseGet)
			r.Post("/{name}/refresh", s.handleUniverseRefresh)
		})

		r.Route("/news", func(r chi.Router) {
			r.Get("/", s.handleMarketNews)
			r.Get("/{ticker}", s.handleTickerNews)
		})
	})
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
