package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"

	"github.com/Alias1177/Turnips/internal/turnips"
	"github.com/Alias1177/Turnips/models"
)

// DB is a Postgres-backed models.IslandStore.
type DB struct {
	*sql.DB
}

var _ models.IslandStore = (*DB)(nil)

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// ConnectTimeout bounds how long New keeps retrying the first ping.
	ConnectTimeout time.Duration
}

// DSN renders the parameters as a lib/pq connection string.
func (p ConnectionParams) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// New opens the database, waits for it to answer and creates the schema.
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	db, err := sql.Open("postgres", params.DSN())
	if err != nil {
		return nil, err
	}

	// Postgres may still be starting next to us
	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = params.ConnectTimeout
	if backoffStrategy.MaxElapsedTime <= 0 {
		backoffStrategy.MaxElapsedTime = 30 * time.Second
	}
	operation := func() error {
		return db.PingContext(ctx)
	}
	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS islands (
			user_id BIGINT PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			timezone TEXT NOT NULL DEFAULT 'UTC',
			past_pattern SMALLINT,
			prices INTEGER[],
			buy_price INTEGER,
			week INTEGER,
			week_year INTEGER,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create islands table: %w", err)
	}
	return nil
}

const selectIsland = `
	SELECT
		user_id, chat_id, name, timezone,
		past_pattern, prices, buy_price, week, week_year, updated_at
	FROM islands
`

type scanner interface {
	Scan(dest ...any) error
}

// turnipColumns is the nullable half of an islands row.
type turnipColumns struct {
	PastPattern sql.NullInt16
	Prices      []int64
	BuyPrice    sql.NullInt32
	Week        sql.NullInt32
	WeekYear    sql.NullInt32
}

func scanIsland(row scanner) (*models.Island, error) {
	var island models.Island
	var cols turnipColumns
	err := row.Scan(
		&island.UserID, &island.ChatID, &island.Name, &island.Timezone,
		&cols.PastPattern, pq.Array(&cols.Prices), &cols.BuyPrice, &cols.Week, &cols.WeekYear, &island.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	island.Turnips, err = cols.week()
	if err != nil {
		return nil, fmt.Errorf("island %d: %w", island.UserID, err)
	}
	return &island, nil
}

func (c turnipColumns) week() (*models.TurnipWeek, error) {
	if !c.Week.Valid || !c.WeekYear.Valid {
		return nil, nil
	}
	if len(c.Prices) > turnips.SlotCount {
		return nil, fmt.Errorf("stored %d prices, want at most %d", len(c.Prices), turnips.SlotCount)
	}

	week := models.NewTurnipWeek(models.Week{Number: int(c.Week.Int32), Year: int(c.WeekYear.Int32)})
	if c.PastPattern.Valid {
		week.PastPattern = turnips.Pattern(c.PastPattern.Int16)
	}
	if c.BuyPrice.Valid {
		week.BuyPrice = int(c.BuyPrice.Int32)
	}
	for i, price := range c.Prices {
		week.Prices[i] = int(price)
	}
	return week, nil
}

func columnsOf(week *models.TurnipWeek) turnipColumns {
	if week == nil {
		return turnipColumns{}
	}
	cols := turnipColumns{
		PastPattern: sql.NullInt16{Int16: int16(week.PastPattern), Valid: true},
		Prices:      make([]int64, len(week.Prices)),
		BuyPrice:    sql.NullInt32{Int32: int32(week.BuyPrice), Valid: week.BuyPrice > 0},
		Week:        sql.NullInt32{Int32: int32(week.Week.Number), Valid: true},
		WeekYear:    sql.NullInt32{Int32: int32(week.Week.Year), Valid: true},
	}
	for i, price := range week.Prices {
		cols.Prices[i] = int64(price)
	}
	return cols
}

// GetIsland retrieves a user's island, nil when the user has none.
func (db *DB) GetIsland(ctx context.Context, userID int64) (*models.Island, error) {
	island, err := scanIsland(db.QueryRowContext(ctx, selectIsland+` WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return island, nil
}

// SaveIsland inserts or replaces an island.
func (db *DB) SaveIsland(ctx context.Context, island *models.Island) error {
	cols := columnsOf(island.Turnips)
	var prices any
	if cols.Prices != nil {
		prices = pq.Array(cols.Prices)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO islands (
			user_id, chat_id, name, timezone,
			past_pattern, prices, buy_price, week, week_year, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id)
		DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			name = EXCLUDED.name,
			timezone = EXCLUDED.timezone,
			past_pattern = EXCLUDED.past_pattern,
			prices = EXCLUDED.prices,
			buy_price = EXCLUDED.buy_price,
			week = EXCLUDED.week,
			week_year = EXCLUDED.week_year,
			updated_at = EXCLUDED.updated_at
	`,
		island.UserID, island.ChatID, island.Name, island.Timezone,
		cols.PastPattern, prices, cols.BuyPrice, cols.Week, cols.WeekYear, island.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save island %d: %w", island.UserID, err)
	}
	return nil
}

// ListIslands returns every island ordered by user.
func (db *DB) ListIslands(ctx context.Context) ([]models.Island, error) {
	rows, err := db.QueryContext(ctx, selectIsland+` ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var islands []models.Island
	for rows.Next() {
		island, err := scanIsland(rows)
		if err != nil {
			return nil, err
		}
		islands = append(islands, *island)
	}
	return islands, rows.Err()
}
