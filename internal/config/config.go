package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`

	TMDBAccessToken  string        `envconfig:"TMDB_ACCESS_TOKEN" required:"true"`
	TMDBBaseURL      string        `envconfig:"TMDB_BASE_URL" default:"https://api.themoviedb.org/3"`
	TMDBImageBaseURL string        `envconfig:"TMDB_IMAGE_BASE_URL" default:"https://image.tmdb.org/t/p/w500"`
	TMDBLanguage     string        `envconfig:"TMDB_LANGUAGE" default:"en-US"`
	TMDBTimeout      time.Duration `envconfig:"TMDB_TIMEOUT" default:"10s"`
	TMDBRateLimit    int           `envconfig:"TMDB_RATE_LIMIT" default:"20"` // requests/sec, 0 = unlimited

	DBPath string `envconfig:"DB_PATH" default:"./data/tracker.db"`

	NotificationInterval int           `envconfig:"NOTIFICATION_INTERVAL" default:"24"` // hours
	DefaultTZ            string        `envconfig:"DEFAULT_TZ" default:"Europe/Moscow"`
	SendTimeout          time.Duration `envconfig:"SEND_TIMEOUT" default:"15s"`

	ContentSiteURL       string        `envconfig:"CONTENT_SITE_URL" default:"https://hdrezka.ag/search/?do=search&subaction=search&q="`
	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	SessionSize          int           `envconfig:"SESSION_SIZE" default:"10000"`
	MaxConcurrentUpdates int           `envconfig:"MAX_CONCURRENT_UPDATES" default:"16"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // healthz + metrics
}

// Load reads an optional .env file, then environment variables into Config.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDotEnv copies variables from ./.env into the environment when the
// file exists. Variables already set are kept.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Validate checks values envconfig cannot express.
func (c Config) Validate() error {
	// envconfig's required only checks that the variable is set.
	if strings.TrimSpace(c.BotToken) == "" {
		return errors.New("BOT_TOKEN is required")
	}
	if strings.TrimSpace(c.TMDBAccessToken) == "" {
		return errors.New("TMDB_ACCESS_TOKEN is required")
	}
	if c.NotificationInterval < 1 {
		return fmt.Errorf("NOTIFICATION_INTERVAL must be at least 1 hour, got %d", c.NotificationInterval)
	}
	if _, err := time.LoadLocation(c.DefaultTZ); err != nil {
		return fmt.Errorf("DEFAULT_TZ: %w", err)
	}
	if c.TMDBRateLimit < 0 {
		return fmt.Errorf("TMDB_RATE_LIMIT must not be negative")
	}
	if c.SessionSize < 1 {
		return fmt.Errorf("SESSION_SIZE must be positive")
	}
	if c.MaxConcurrentUpdates < 1 {
		return fmt.Errorf("MAX_CONCURRENT_UPDATES must be positive")
	}
	return nil
}

// Interval returns the polling interval.
func (c Config) Interval() time.Duration {
	return time.Duration(c.NotificationInterval) * time.Hour
}

// Location returns the location used to evaluate "today".
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}
