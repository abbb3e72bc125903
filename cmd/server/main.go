package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Turnips/internal/config"
	"github.com/Alias1177/Turnips/internal/database"
	"github.com/Alias1177/Turnips/internal/journal"
	"github.com/Alias1177/Turnips/internal/metrics"
	"github.com/Alias1177/Turnips/internal/scheduler"
	"github.com/Alias1177/Turnips/internal/server"
	"github.com/Alias1177/Turnips/internal/turnips"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger := cfg.SetupLogger()

	catalog, err := turnips.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("Failed to load catalog")
	}
	predictor := turnips.NewPredictor(catalog,
		turnips.WithLogger(logger),
		turnips.WithMaxTolerance(cfg.MaxTolerance),
	)
	logger.Info().Str("catalog", catalog.Version).Msg("Predictor ready")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.Database())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	j := journal.New(db, predictor,
		journal.WithLogger(logger),
		journal.WithDefaultTimezone(cfg.DefaultTimezone),
		journal.WithRolloverConfidence(cfg.RolloverConfidence),
		journal.WithWriteLimit(cfg.DBWritesPerSec),
	)
	recorder := metrics.New()

	sched := scheduler.New(logger)
	if err := sched.AddJob(cfg.RolloverSchedule, scheduler.NewRolloverJob(j, recorder, 10*time.Minute)); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.RolloverSchedule).Msg("Failed to schedule rollover")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:      cfg.HTTPPort,
		Log:       logger,
		Predictor: predictor,
		Journal:   j,
		Metrics:   recorder,
		DevMode:   cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server stopped")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
}
