package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Alias1177/Turnips/internal/turnips"
	"github.com/Alias1177/Turnips/models"
)

var (
	ErrInvalidPrice = errors.New("price must be a positive number of bells")
	ErrInvalidSlot  = errors.New("no such price slot")
)

// Rollover describes what EnsureCurrent did to an island's week.
type Rollover struct {
	Started     bool            `json:"started"`
	Previous    models.Week     `json:"previous"`
	PastPattern turnips.Pattern `json:"past_pattern"`
}

// Journal keeps every island's turnip week up to date.
type Journal struct {
	store      models.IslandStore
	predictor  *turnips.Predictor
	timezone   string
	confidence float64
	writes     *rate.Limiter
	log        zerolog.Logger
}

type Option func(*Journal)

// WithLogger sets the journal's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(j *Journal) {
		j.log = l.With().Str("component", "journal").Logger()
	}
}

// WithDefaultTimezone sets the timezone given to islands seen for the first time.
func WithDefaultTimezone(name string) Option {
	return func(j *Journal) {
		j.timezone = name
	}
}

// WithRolloverConfidence sets the posterior a finished week's pattern must
// exceed to be carried over.
func WithRolloverConfidence(p float64) Option {
	return func(j *Journal) {
		if p > 0 && p < 1 {
			j.confidence = p
		}
	}
}

// WithWriteLimit caps the saves RolloverAll issues per second. Zero or less
// leaves them unpaced.
func WithWriteLimit(perSecond int) Option {
	return func(j *Journal) {
		if perSecond > 0 {
			j.writes = rate.NewLimiter(rate.Every(time.Second/time.Duration(perSecond)), 1)
		}
	}
}

// Confidence is the posterior a pattern must exceed to count as known.
func (j *Journal) Confidence() float64 {
	return j.confidence
}

func New(store models.IslandStore, predictor *turnips.Predictor, opts ...Option) *Journal {
	j := &Journal{
		store:      store,
		predictor:  predictor,
		timezone:   "UTC",
		confidence: turnips.RolloverConfidence,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Island loads an island, creating it in memory when the user is new.
func (j *Journal) Island(ctx context.Context, userID int64) (*models.Island, error) {
	island, err := j.store.GetIsland(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load island %d: %w", userID, err)
	}
	if island == nil {
		island = &models.Island{UserID: userID, ChatID: userID, Timezone: j.timezone}
	}
	return island, nil
}

// EnsureCurrent makes sure the island holds data for the week containing now.
// When the stored week is over, the pattern it most likely followed becomes
// the new week's past pattern.
func (j *Journal) EnsureCurrent(island *models.Island, now time.Time) (Rollover, error) {
	loc, err := island.Location()
	if err != nil {
		return Rollover{}, err
	}
	current := models.WeekOf(now.In(loc))

	if island.Turnips == nil {
		island.Turnips = models.NewTurnipWeek(current)
		return Rollover{}, nil
	}
	if island.Turnips.Week.Current(current) {
		return Rollover{}, nil
	}

	outgoing := island.Turnips
	past := j.infer(island.UserID, outgoing)
	island.Turnips = models.NewTurnipWeek(current)
	island.Turnips.PastPattern = past

	j.log.Info().
		Int64("user_id", island.UserID).
		Str("from", outgoing.Week.String()).
		Str("to", current.String()).
		Str("past_pattern", past.String()).
		Msg("Started new turnip week")
	return Rollover{Started: true, Previous: outgoing.Week, PastPattern: past}, nil
}

func (j *Journal) infer(userID int64, outgoing *models.TurnipWeek) turnips.Pattern {
	dist, err := j.predictor.PredictPattern(outgoing.Observation())
	if err != nil {
		j.log.Warn().Err(err).Int64("user_id", userID).Msg("Could not infer last week's pattern")
		return turnips.Unknown
	}
	return turnips.MostLikely(dist, j.confidence)
}

// RecordPrice stores a price seen at slot. A Sunday price is the buy price
// and fills both Sunday slots.
func (j *Journal) RecordPrice(ctx context.Context, userID int64, slot, price int, now time.Time) (Rollover, error) {
	if slot < 0 || slot >= turnips.SlotCount {
		return Rollover{}, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	if price <= 0 {
		return Rollover{}, fmt.Errorf("%w: %d", ErrInvalidPrice, price)
	}
	return j.update(ctx, userID, now, func(week *models.TurnipWeek) {
		if slot < turnips.FirstSellSlot {
			setSunday(week, price)
			return
		}
		week.Prices[slot] = price
	})
}

// SetBuyPrice stores what the island paid for turnips on Sunday.
func (j *Journal) SetBuyPrice(ctx context.Context, userID int64, price int, now time.Time) (Rollover, error) {
	if price <= 0 {
		return Rollover{}, fmt.Errorf("%w: %d", ErrInvalidPrice, price)
	}
	return j.update(ctx, userID, now, func(week *models.TurnipWeek) {
		setSunday(week, price)
	})
}

func setSunday(week *models.TurnipWeek, price int) {
	week.Prices[0], week.Prices[1] = price, price
	week.BuyPrice = price
}

// SetPastPattern overrides last week's pattern. A stale week is replaced
// without inferring anything from it.
func (j *Journal) SetPastPattern(ctx context.Context, userID int64, pattern turnips.Pattern, now time.Time) error {
	if pattern != turnips.Unknown && !pattern.Valid() {
		return fmt.Errorf("%w: previous pattern %d", turnips.ErrInvalidObservations, int(pattern))
	}
	island, err := j.Island(ctx, userID)
	if err != nil {
		return err
	}
	loc, err := island.Location()
	if err != nil {
		return err
	}
	current := models.WeekOf(now.In(loc))
	if island.Turnips == nil || !island.Turnips.Week.Current(current) {
		island.Turnips = models.NewTurnipWeek(current)
	}
	island.Turnips.PastPattern = pattern
	return j.save(ctx, island, now)
}

// Observation builds the predictor input for an island. It does not roll the
// week over, so a stale week is still answered from its own data.
func (j *Journal) Observation(island *models.Island) turnips.ObservationRecord {
	if island.Turnips == nil {
		return turnips.ObservationRecord{PreviousPattern: turnips.Unknown}
	}
	return island.Turnips.Observation()
}

func (j *Journal) update(ctx context.Context, userID int64, now time.Time, apply func(*models.TurnipWeek)) (Rollover, error) {
	island, err := j.Island(ctx, userID)
	if err != nil {
		return Rollover{}, err
	}
	rollover, err := j.EnsureCurrent(island, now)
	if err != nil {
		return Rollover{}, err
	}
	apply(island.Turnips)
	if err := j.save(ctx, island, now); err != nil {
		return Rollover{}, err
	}
	return rollover, nil
}

func (j *Journal) save(ctx context.Context, island *models.Island, now time.Time) error {
	island.UpdatedAt = now.UTC()
	if err := j.store.SaveIsland(ctx, island); err != nil {
		return fmt.Errorf("save island %d: %w", island.UserID, err)
	}
	return nil
}
