package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arthalabs/risk-engine/internal/cache"
	"github.com/arthalabs/risk-engine/internal/config"
	"github.com/arthalabs/risk-engine/internal/database"
	"github.com/arthalabs/risk-engine/internal/events"
	"github.com/arthalabs/risk-engine/internal/marketdata"
	"github.com/arthalabs/risk-engine/internal/monitor"
	"github.com/arthalabs/risk-engine/internal/scheduler"
	"github.com/arthalabs/risk-engine/internal/server"
	"github.com/arthalabs/risk-engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Risk Engine")

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

	trades := database.NewTradeRepository(db)
	watchlist := database.NewWatchlistRepository(db)

	// Wire the engine core
	eventManager := events.NewManager(log)
	provider := marketdata.NewHistoryProvider(cfg.HistoryDir, log)
	resultCache := cache.New()

	mon := monitor.New(cfg, provider, resultCache, eventManager, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	// Register background jobs
	refreshJob := scheduler.NewRiskRefreshJob(mon, watchlist, eventManager, log)
	if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		Monitor:   mon,
		Trades:    trades,
		Watchlist: watchlist,
		Config:    cfg,
		DevMode:   cfg.DevMode,
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
