package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SHLOK333/xion-trade-miniapp/internal/config"
	"github.com/SHLOK333/xion-trade-miniapp/internal/database"
	"github.com/SHLOK333/xion-trade-miniapp/internal/events"
	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/advisor"
	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/monitoring"
	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/portfolio"
	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/rebalancing"
	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/risk"
	"github.com/SHLOK333/xion-trade-miniapp/internal/modules/trading"
	"github.com/SHLOK333/xion-trade-miniapp/internal/scheduler"
	"github.com/SHLOK333/xion-trade-miniapp/internal/server"
	"github.com/SHLOK333/xion-trade-miniapp/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("account", cfg.AccountID).Msg("Starting portfolio risk service")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Core services
	ev := events.NewManager(log)
	portfolioRepo := portfolio.NewRepository(db, log)
	tradeLedger := trading.NewRepository(db, log)
	assessor := risk.NewAssessor(cfg.Risk, log)
	debate := advisor.NewDebateService(advisor.NewRuleAdviser(), log)

	monitor := monitoring.NewMonitor(cfg.AccountID, cfg.Risk, portfolioRepo, assessor, ev, log)
	rebalancer := rebalancing.NewRebalancer(cfg.AccountID, cfg.Rebalance, portfolioRepo, tradeLedger, ev, log)
	system := rebalancing.NewSystem(cfg.AccountID, monitor, rebalancer, log)
	system.Start()
	defer system.Stop()

	// Drive the monitor from the scheduler
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.MonitorSchedule, monitoring.NewJob(monitor)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register monitor job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:             cfg.Port,
		DevMode:          cfg.DevMode,
		Log:              log,
		RiskHandler:      risk.NewHandler(portfolioRepo, assessor, cfg.AccountID, log),
		RebalanceHandler: rebalancing.NewHandler(system, log),
		AdvisorHandler:   advisor.NewHandler(portfolioRepo, assessor, debate, cfg.AccountID, log),
		System:           system,
	})

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

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
