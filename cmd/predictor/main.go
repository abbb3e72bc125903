package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Turnips/internal/config"
	"github.com/Alias1177/Turnips/internal/database"
	"github.com/Alias1177/Turnips/internal/journal"
	"github.com/Alias1177/Turnips/internal/turnips"
	"github.com/Alias1177/Turnips/models"
)

func main() {
	var (
		queryKind = flag.String("query", "pattern", "pattern, profit, max, table, json or link")
		prices    = flag.String("prices", "", "Sunday price then selling prices, dot separated (\"100.86.82\")")
		previous  = flag.String("previous", "unknown", "last week's pattern")
		threshold = flag.Float64("threshold", -1, "profit threshold in bells, defaults to the buy price")
		name      = flag.String("name", "My island", "island name used in links")
		userID    = flag.Int64("user", 0, "answer for a stored island instead of -prices")
		record    = flag.String("record", "", "with -user, store a price first: \"wed pm 130\" or \"sun 97\"")
		past      = flag.String("set-past", "", "with -user, store last week's pattern first")
	)
	flag.Parse()

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

	q := query{Kind: strings.ToLower(*queryKind), Threshold: *threshold, Name: *name, Now: time.Now()}

	var week *models.TurnipWeek
	if *userID != 0 {
		week, q.Now, err = storedWeek(ctx, cfg, logger, predictor, *userID, *record, *past)
	} else {
		week, err = flagWeek(*prices, *previous)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to prepare island data")
	}

	out, err := q.answer(predictor, week)
	if err != nil {
		if errors.Is(err, turnips.ErrInvalidObservations) || errors.Is(err, turnips.ErrInconsistentBuyPrice) {
			logger.Error().Err(err).Msg("Check the recorded prices, no pattern explains them")
		}
		logger.Fatal().Err(err).Str("query", q.Kind).Msg("Query failed")
	}
	fmt.Println(out)
}

func flagWeek(prices, previous string) (*models.TurnipWeek, error) {
	pattern, err := turnips.ParsePattern(previous)
	if err != nil {
		return nil, err
	}
	week := models.NewTurnipWeek(models.WeekOf(time.Now()))
	week.PastPattern = pattern
	if week.Prices, err = models.ParsePrices(prices); err != nil {
		return nil, err
	}
	week.BuyPrice = week.Prices[0]
	return week, nil
}

// storedWeek loads an island, applies any -record or -set-past change and
// returns its week together with the island's local time.
func storedWeek(ctx context.Context, cfg *config.Config, logger zerolog.Logger, predictor *turnips.Predictor,
	userID int64, record, past string) (*models.TurnipWeek, time.Time, error) {
	db, err := database.New(ctx, cfg.Database())
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()

	j := journal.New(db, predictor,
		journal.WithLogger(logger),
		journal.WithDefaultTimezone(cfg.DefaultTimezone),
		journal.WithRolloverConfidence(cfg.RolloverConfidence),
	)
	now := time.Now()

	if past != "" {
		pattern, err := turnips.ParsePattern(past)
		if err != nil {
			return nil, now, err
		}
		if err := j.SetPastPattern(ctx, userID, pattern, now); err != nil {
			return nil, now, err
		}
	}
	if record != "" {
		slot, price, err := parseRecord(record)
		if err != nil {
			return nil, now, err
		}
		rollover, err := j.RecordPrice(ctx, userID, slot, price, now)
		if err != nil {
			return nil, now, err
		}
		if rollover.Started {
			logger.Info().Str("past_pattern", rollover.PastPattern.String()).Msg("A new week started")
		}
	}

	island, err := j.Island(ctx, userID)
	if err != nil {
		return nil, now, err
	}
	loc, err := island.Location()
	if err != nil {
		return nil, now, err
	}
	if island.Turnips == nil {
		island.Turnips = models.NewTurnipWeek(models.WeekOf(now.In(loc)))
	}
	return island.Turnips, now.In(loc), nil
}

// parseRecord reads "<day> [am|pm] <price>"; Sunday takes no half.
func parseRecord(s string) (int, int, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 || len(fields) > 3 {
		return 0, 0, fmt.Errorf("invalid record %q", s)
	}
	day, err := models.ParseDay(fields[0])
	if err != nil {
		return 0, 0, err
	}
	price, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid price %q", fields[len(fields)-1])
	}
	half := models.AM
	if len(fields) == 3 {
		if half, err = models.ParseHalf(fields[1]); err != nil {
			return 0, 0, err
		}
	} else if day != time.Sunday {
		return 0, 0, fmt.Errorf("missing AM or PM in %q", s)
	}
	return models.SlotFor(day, half), price, nil
}
