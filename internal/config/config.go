package config

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Turnips/internal/database"
	"github.com/Alias1177/Turnips/internal/turnips"
)

// Config holds all application configuration
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`
	// CatalogPath points at a YAML rule table; empty uses the built-in one.
	CatalogPath        string  `env:"CATALOG_PATH" envDefault:""`
	MaxTolerance       int     `env:"PREDICTOR_MAX_TOLERANCE" envDefault:"0"`
	RolloverConfidence float64 `env:"ROLLOVER_CONFIDENCE" envDefault:"0.99984"`
	DefaultTimezone    string  `env:"DEFAULT_TIMEZONE" envDefault:"UTC"`

	HTTPPort         int    `env:"HTTP_PORT" envDefault:"8080"`
	DevMode          bool   `env:"DEV_MODE" envDefault:"false"`
	RolloverSchedule string `env:"ROLLOVER_SCHEDULE" envDefault:"5 * * * *"`

	DBHost           string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort           string        `env:"DB_PORT" envDefault:"5432"`
	DBUser           string        `env:"DB_USER" envDefault:"postgres"`
	DBPassword       string        `env:"DB_PASSWORD" envDefault:""`
	DBName           string        `env:"DB_NAME" envDefault:"turnips"`
	DBSSLMode        string        `env:"DB_SSLMODE" envDefault:"disable"`
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"30s"`
	DBWritesPerSec   int           `env:"DB_WRITES_PER_SEC" envDefault:"20"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.LogJSON = getEnvBoolWithDefault("LOG_JSON", false)
	cfg.CatalogPath = os.Getenv("CATALOG_PATH")
	cfg.MaxTolerance = getEnvIntWithDefault("PREDICTOR_MAX_TOLERANCE", 0)
	cfg.RolloverConfidence = getEnvFloatWithDefault("ROLLOVER_CONFIDENCE", turnips.RolloverConfidence)
	cfg.DefaultTimezone = getEnvWithDefault("DEFAULT_TIMEZONE", "UTC")

	cfg.HTTPPort = getEnvIntWithDefault("HTTP_PORT", 8080)
	cfg.DevMode = getEnvBoolWithDefault("DEV_MODE", false)
	cfg.RolloverSchedule = getEnvWithDefault("ROLLOVER_SCHEDULE", "5 * * * *")

	cfg.DBHost = getEnvWithDefault("DB_HOST", "localhost")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "turnips")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")
	cfg.DBConnectTimeout = getEnvDurationWithDefault("DB_CONNECT_TIMEOUT", 30*time.Second)
	cfg.DBWritesPerSec = getEnvIntWithDefault("DB_WRITES_PER_SEC", 20)

	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		log.Warn().Str("timezone", cfg.DefaultTimezone).Msg("Unknown DEFAULT_TIMEZONE, using UTC")
		cfg.DefaultTimezone = "UTC"
	}
	if cfg.MaxTolerance < 0 {
		cfg.MaxTolerance = 0
	}

	return &cfg, nil
}

// Database returns the connection parameters for database.New.
func (c *Config) Database() database.ConnectionParams {
	return database.ConnectionParams{
		Host:           c.DBHost,
		Port:           c.DBPort,
		User:           c.DBUser,
		Password:       c.DBPassword,
		DBName:         c.DBName,
		SSLMode:        c.DBSSLMode,
		ConnectTimeout: c.DBConnectTimeout,
	}
}

// SetupLogger points the global logger at stderr with the configured level.
func (c *Config) SetupLogger() zerolog.Logger {
	return setupLogger(os.Stderr, c.LogLevel, c.LogJSON)
}

func setupLogger(w io.Writer, level string, json bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if !json {
		w = zerolog.ConsoleWriter{Out: w}
	}
	log.Logger = log.Output(w).Level(lvl)
	return log.Logger
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
