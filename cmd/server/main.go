package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantdesk/quantdesk/internal/clients/feargreed"
	"github.com/quantdesk/quantdesk/internal/clients/yahoo"
	"github.com/quantdesk/quantdesk/internal/config"
	"github.com/quantdesk/quantdesk/internal/database"
	"github.com/quantdesk/quantdesk/internal/database/repositories"
	"github.com/quantdesk/quantdesk/internal/modules/news"
	"github.com/quantdesk/quantdesk/internal/modules/ranking"
	syncmod "github.com/quantdesk/quantdesk/internal/modules/sync"
	"github.com/quantdesk/quantdesk/internal/modules/timing"
	"github.com/quantdesk/quantdesk/internal/modules/universe"
	"github.com/quantdesk/quantdesk/internal/scheduler"
	"github.com/quantdesk/quantdesk/internal/server"
	"github.com/quantdesk/quantdesk/pkg/logger"
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
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting QuantDesk")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Repositories
	bars := repositories.NewBarRepository(db.Conn(), log)
	facts := repositories.NewFundamentalRepository(db.Conn(), log)
	info := repositories.NewStockInfoRepository(db.Conn(), log)
	rankings := repositories.NewRankingRepository(db.Conn(), log)
	syncLog := repositories.NewSyncLogRepository(db.Conn(), log)

	// External clients
	marketData := yahoo.NewClient(log, cfg.RequestsPerSec)
	sentiment := feargreed.NewClient(cfg.SentimentURL, log)

	// Services
	syncer := syncmod.NewService(bars, facts, info, syncLog, marketData, marketData, syncmod.Config{
		PriceWorkers: cfg.PriceWorkers,
		FundWorkers:  cfg.FundWorkers,
		TaskTimeout:  cfg.FetchTimeout,
		FullHistory:  cfg.FullHistory,
	}, log)

	engine := ranking.NewEngine(bars, facts, info, rankings, cfg.Benchmark, cfg.OverlayTopN, log)
	scanner := timing.NewScanner(bars, marketData, cfg.FearGauge, log)
	universes := universe.NewService(cfg.UniverseDir, log)
	newsSvc := news.NewService(nil, log)

	// Scheduler with the daily sync job
	sched := scheduler.New(log)
	schedule := setupSchedule(sched, cfg, universes, syncer, log)
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Log:       log,
		Bars:      bars,
		SyncLog:   syncLog,
		Rankings:  rankings,
		Syncer:    syncer,
		Engine:    engine,
		Scanner:   scanner,
		Sentiment: sentiment,
		Universes: universes,
		News:      newsSvc,
		Schedule:  schedule,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
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

// setupSchedule loads the sync schedule file and registers the daily job
// when enabled. Schedule problems are logged, never fatal.
func setupSchedule(sched *scheduler.Scheduler, cfg *config.Config, universes *universe.Service, syncer *syncmod.Service, log zerolog.Logger) *scheduler.SyncSchedule {
	schedule, err := scheduler.LoadSyncSchedule(cfg.SyncConfigPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load sync schedule")
		return &scheduler.SyncSchedule{}
	}
	if !schedule.Enabled {
		log.Info().Msg("Daily sync schedule disabled")
		return schedule
	}

	spec, err := schedule.CronSpec()
	if err != nil {
		log.Error().Err(err).Msg("Invalid sync schedule time")
		return schedule
	}

	job := scheduler.NewDailySyncJob(schedule, universes, syncer, log)
	if err := sched.AddJob(spec, job); err != nil {
		log.Error().Err(err).Msg("Failed to register daily sync job")
	}
	return schedule
}
