package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"walletfolio/internal/auth"
	"walletfolio/internal/clientdata"
	"walletfolio/internal/clients/finnhub"
	"walletfolio/internal/clients/stooq"
	"walletfolio/internal/config"
	"walletfolio/internal/database"
	"walletfolio/internal/modules/charts"
	chartshandlers "walletfolio/internal/modules/charts/handlers"
	"walletfolio/internal/modules/positions"
	positionshandlers "walletfolio/internal/modules/positions/handlers"
	"walletfolio/internal/modules/snapshots"
	snapshotshandlers "walletfolio/internal/modules/snapshots/handlers"
	"walletfolio/internal/modules/wallets"
	walletshandlers "walletfolio/internal/modules/wallets/handlers"
	"walletfolio/internal/quotes"
	"walletfolio/internal/scheduler"
	"walletfolio/internal/server"
	"walletfolio/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Walletfolio")

	// Initialize database
	db, err := database.New(database.Config{Path: cfg.DatabasePath()})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Quote clients and the cached provider
	finnhubClient := finnhub.NewClient(finnhub.Config{
		APIKey:  cfg.FinnhubAPIKey,
		Timeout: cfg.HTTPClientTimeout,
	}, log)
	stooqClient := stooq.NewClient(stooq.Config{
		Timeout: cfg.HTTPClientTimeout,
	}, log)
	cacheRepo := clientdata.NewRepository(db.Conn())
	quoteProvider := quotes.NewProvider(finnhubClient, stooqClient, cacheRepo, cfg.QuoteCacheTTL, log)

	// Repositories
	sessionRepo := auth.NewSessionRepository(db.Conn())
	walletRepo := wallets.NewRepository(db.Conn(), log)
	positionRepo := positions.NewRepository(db.Conn(), log)
	snapshotRepo := snapshots.NewRepository(db.Conn(), log)

	// Services. The wallet service needs the position service for
	// valuation and the position service needs wallet lookups, so the
	// position source is attached after construction.
	walletService := wallets.NewService(walletRepo, nil, quoteProvider, log)
	positionService := positions.NewService(positionRepo, walletService, log)
	walletService.SetPositionSource(positionService)

	rollupService := snapshots.NewRollupService(positionRepo, quoteProvider, snapshotRepo, log)
	chartService := charts.NewService(snapshotRepo, walletService, log)

	// HTTP server
	srv := server.New(server.Config{
		Log:              log,
		Config:           cfg,
		DB:               db,
		Sessions:         sessionRepo,
		Quotes:           quoteProvider,
		WalletHandlers:   walletshandlers.NewHandler(walletService, log),
		PositionHandlers: positionshandlers.NewHandler(positionService, log),
		ChartHandlers:    chartshandlers.NewHandler(chartService, log),
		SnapshotHandlers: snapshotshandlers.NewHandler(rollupService, cfg.CronJobSecret, log),
	})

	// Scheduler, off by default; the cron HTTP trigger is always available
	if cfg.EnableScheduler {
		sched := scheduler.New(log)

		if err := sched.AddJob(cfg.DailySnapshotSchedule, snapshots.NewDailyRollupJob(rollupService, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register daily snapshot job")
		}
		if err := sched.AddJob(cfg.IntradaySnapshotSchedule, snapshots.NewIntradayRollupJob(rollupService, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register intraday snapshot job")
		}
		if err := sched.AddJob("0 30 3 * * *", clientdata.NewCleanupJob(cacheRepo, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
		}

		sched.Start()
		defer sched.Stop()
	}

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
