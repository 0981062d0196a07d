// Package server provides the HTTP server and routing for Walletfolio.
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

	"walletfolio/internal/auth"
	"walletfolio/internal/config"
	"walletfolio/internal/database"
	chartshandlers "walletfolio/internal/modules/charts/handlers"
	positionshandlers "walletfolio/internal/modules/positions/handlers"
	snapshotshandlers "walletfolio/internal/modules/snapshots/handlers"
	walletshandlers "walletfolio/internal/modules/wallets/handlers"
	"walletfolio/internal/quotes"
)

// Config holds server configuration
type Config struct {
	Log              zerolog.Logger
	Config           *config.Config
	DB               *database.DB
	Sessions         auth.SessionProvider
	Quotes           *quotes.Provider
	WalletHandlers   *walletshandlers.Handler
	PositionHandlers *positionshandlers.Handler
	ChartHandlers    *chartshandlers.Handler
	SnapshotHandlers *snapshotshandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router           *chi.Mux
	server           *http.Server
	log              zerolog.Logger
	cfg              *config.Config
	db               *database.DB
	sessions         auth.SessionProvider
	stockHandlers    *StockHandlers
	systemHandlers   *SystemHandlers
	walletHandlers   *walletshandlers.Handler
	positionHandlers *positionshandlers.Handler
	chartHandlers    *chartshandlers.Handler
	snapshotHandlers *snapshotshandlers.Handler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:           chi.NewRouter(),
		log:              cfg.Log.With().Str("component", "server").Logger(),
		cfg:              cfg.Config,
		db:               cfg.DB,
		sessions:         cfg.Sessions,
		stockHandlers:    NewStockHandlers(cfg.Quotes, cfg.Log),
		systemHandlers:   NewSystemHandlers(cfg.Config.DataDir, cfg.DB, cfg.Log),
		walletHandlers:   cfg.WalletHandlers,
		positionHandlers: cfg.PositionHandlers,
		chartHandlers:    cfg.ChartHandlers,
		snapshotHandlers: cfg.SnapshotHandlers,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.systemHandlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/system/status", s.systemHandlers.HandleStatus)

		// Live price read, no session required
		r.Get("/stock", s.stockHandlers.HandleGetPrices)

		// Cron trigger guards itself with the shared secret
		s.snapshotHandlers.RegisterRoutes(r)

		// Session-scoped routes
		r.Route("/wallets", func(r chi.Router) {
			r.Use(auth.Middleware(s.sessions))
			s.walletHandlers.RegisterRoutes(r)
			s.positionHandlers.RegisterRoutes(r)
			s.chartHandlers.RegisterRoutes(r)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the router for tests.
func (s *Server) Router() http.Handler {
	return s.router
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
