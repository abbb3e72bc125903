package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Turnips/internal/config"
	"github.com/Alias1177/Turnips/internal/database"
	"github.com/Alias1177/Turnips/internal/journal"
	"github.com/Alias1177/Turnips/internal/turnips"
)

// rollover starts the new week on every stored island. It is meant to run
// from cron shortly after midnight on Sunday.
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

	stats, err := j.RolloverAll(ctx, time.Now())
	if err != nil {
		logger.Error().Err(err).Msg("Rollover interrupted")
		return
	}
	if stats.Failed > 0 {
		logger.Warn().Int("failed", stats.Failed).Msg("Some islands were not rolled over")
	}
}
