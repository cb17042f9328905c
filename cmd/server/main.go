package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/thetafolio/thetafolio/internal/cache"
	"github.com/thetafolio/thetafolio/internal/clients/robinhood"
	"github.com/thetafolio/thetafolio/internal/clients/yahoo"
	"github.com/thetafolio/thetafolio/internal/config"
	"github.com/thetafolio/thetafolio/internal/database"
	"github.com/thetafolio/thetafolio/internal/modules/enrichment"
	"github.com/thetafolio/thetafolio/internal/modules/indicators"
	"github.com/thetafolio/thetafolio/internal/modules/market_hours"
	"github.com/thetafolio/thetafolio/internal/modules/notes"
	"github.com/thetafolio/thetafolio/internal/modules/portfolio"
	"github.com/thetafolio/thetafolio/internal/modules/premium"
	"github.com/thetafolio/thetafolio/internal/modules/tickerdata"
	"github.com/thetafolio/thetafolio/internal/scheduler"
	"github.com/thetafolio/thetafolio/internal/server"
	"github.com/thetafolio/thetafolio/pkg/logger"
)

func main() {
	// Bootstrap logger, reconfigured once the config is loaded
	log := logger.New(logger.Config{
		Level:  "info",
		Pretty: true,
	})

	log.Info().Msg("Starting Thetafolio")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	// Filesystem cache for API payloads and snapshots
	store, err := cache.NewStore(filepath.Join(cfg.DataDir, "cache", "api"), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cache store")
	}

	// Market clock drives the snapshot TTL
	hours := market_hours.NewService(market_hours.DefaultSession(cfg.MarketTimezone))
	policy := cache.NewPolicy(cache.DefaultTTLConfig(), hours)

	// indicators.db - cached technical indicator values
	indicatorsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache", "indicators.db"),
		Profile: database.ProfileCache,
		Name:    "indicators",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize indicators database")
	}
	defer indicatorsDB.Close()

	if err := indicatorsDB.InitSchema(indicators.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize indicators schema")
	}

	// Upstream clients
	brokerage := robinhood.NewClient(cfg.RobinhoodAPIURL, cfg.NummusAPIURL, log)
	brokerage.SetToken(cfg.RobinhoodToken)
	history := yahoo.NewClient(log)

	// Data services
	tickerData := tickerdata.NewService(store, policy, brokerage, history, log)
	indicatorCache := indicators.NewCache(indicatorsDB.Conn(), log)
	enricher := enrichment.NewEnricher(tickerData, indicatorCache, log)

	stateRepo, err := premium.NewRepository(filepath.Join(cfg.DataDir, "state"), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize run state repository")
	}
	accumulator := premium.NewAccumulator(brokerage, log)

	portfolioService := portfolio.NewService(
		cfg.Accounts,
		store,
		policy,
		brokerage,
		enricher,
		stateRepo,
		accumulator,
		filepath.Join(cfg.DataDir, "csv"),
		log,
	)

	notesRepo, err := notes.NewRepository(filepath.Join(cfg.DataDir, "notes"), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize notes repository")
	}

	// Background jobs
	sched := scheduler.New(log)

	snapshotRefresh := scheduler.NewSnapshotRefreshJob(portfolioService, log)
	if err := sched.AddJob("0 */5 * * * *", snapshotRefresh); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot refresh job")
	}

	cacheSweep := scheduler.NewCacheSweepJob(store, policy, log)
	if err := sched.AddJob("0 0 1 * * *", cacheSweep); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache sweep job")
	}

	dbMaintenance := scheduler.NewDBMaintenanceJob(map[string]*database.DB{"indicators": indicatorsDB}, log)
	if err := sched.AddJob("0 0 2 * * *", dbMaintenance); err != nil {
		log.Fatal().Err(err).Msg("Failed to register db maintenance job")
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Portfolio: portfolio.NewHandler(portfolioService, stateRepo, log),
		Notes:     notes.NewHandler(notesRepo, cfg.Accounts, log),
		Charts:    tickerdata.NewHandler(tickerData, log),
		System:    server.NewSystemHandlers(log, cfg.DataDir, store, hours, sched),
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().
		Int("port", cfg.Port).
		Strs("accounts", portfolioService.AccountNames()).
		Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
