package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
// Environment variables and config-file keys are read here and nowhere else.
type Config struct {
	// Server
	Port string `yaml:"port"`
	Env  string `yaml:"env"` // development, staging, production

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json, console

	// Rating bounds for the recommendation phase
	Rating RatingConfig `yaml:"rating"`

	// External gateways
	Tiingo TiingoConfig `yaml:"tiingo"`
	News   NewsConfig   `yaml:"news"`

	// Favourites store
	FavouritesPath string `yaml:"favourites_path"`

	// Cron expression for the scheduled market run (with seconds field)
	Schedule string `yaml:"schedule"`

	Pipeline PipelineConfig `yaml:"pipeline"`
}

// RatingConfig holds the rating scale and the sell threshold.
type RatingConfig struct {
	Threshold int `yaml:"threshold"`
	Min       int `yaml:"min"`
	Max       int `yaml:"max"`
}

// TiingoConfig holds the market-data provider configuration.
type TiingoConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`

	// Requests per second against the provider; 0 disables rate limiting.
	RateLimit float64 `yaml:"rate_limit"`
}

// NewsConfig holds the news-rating service endpoints.
type NewsConfig struct {
	BaseURL  string `yaml:"base_url"`
	ListPath string `yaml:"list_path"`
	SalePath string `yaml:"sale_path"`
}

// PipelineConfig holds pipeline tuning knobs.
type PipelineConfig struct {
	// Filter names applied during phase one, in order.
	// Known names: three_day, five_day.
	Filters []string `yaml:"filters"`

	// How long phase one waits for the rating callback before
	// abandoning the run.
	WaitTimeout time.Duration `yaml:"wait_timeout"`

	// Retained from the historical polling wait; the callback handoff is
	// signalled now, so only WaitTimeout governs the wait.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Load reads configuration from a YAML file, then applies environment
// variable overrides. A missing file is not an error; env-only setups are
// supported.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides lets environment variables win over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("RATING_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Rating.Threshold = n
		}
	}
	if v := os.Getenv("RATING_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Rating.Min = n
		}
	}
	if v := os.Getenv("RATING_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Rating.Max = n
		}
	}
	if v := os.Getenv("TIINGO_BASE_URL"); v != "" {
		c.Tiingo.BaseURL = v
	}
	if v := os.Getenv("TIINGO_API_KEY"); v != "" {
		c.Tiingo.APIKey = v
	}
	if v := os.Getenv("NEWS_URL"); v != "" {
		c.News.BaseURL = v
	}
	if v := os.Getenv("FAVOURITE_STOCKS_PATH"); v != "" {
		c.FavouritesPath = v
	}
	if v := os.Getenv("SCHEDULE"); v != "" {
		c.Schedule = v
	}
}

// applyDefaults fills in anything the file and environment left unset.
func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8090"
	}
	if c.Env == "" {
		c.Env = "development"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Rating.Threshold == 0 && c.Rating.Min == 0 && c.Rating.Max == 0 {
		c.Rating = RatingConfig{Threshold: 3, Min: 1, Max: 5}
	}
	if c.Tiingo.BaseURL == "" {
		c.Tiingo.BaseURL = "https://api.tiingo.com"
	}
	if c.News.ListPath == "" {
		c.News.ListPath = "/liststock"
	}
	if c.News.SalePath == "" {
		c.News.SalePath = "/salestock"
	}
	if c.FavouritesPath == "" {
		c.FavouritesPath = "data/favourite_stocks.txt"
	}
	if c.Schedule == "" {
		// weekdays at 08:00
		c.Schedule = "0 0 8 * * 1-5"
	}
	if len(c.Pipeline.Filters) == 0 {
		c.Pipeline.Filters = []string{"three_day", "five_day"}
	}
	if c.Pipeline.WaitTimeout == 0 {
		c.Pipeline.WaitTimeout = 2 * time.Minute
	}
	if c.Pipeline.PollInterval == 0 {
		c.Pipeline.PollInterval = 2 * time.Second
	}
}

// validate checks that the configuration is internally consistent.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("env must be one of: development, staging, production")
	}
	if c.Rating.Min > c.Rating.Max {
		return fmt.Errorf("rating.min (%d) must not exceed rating.max (%d)", c.Rating.Min, c.Rating.Max)
	}
	if c.Rating.Threshold < c.Rating.Min || c.Rating.Threshold > c.Rating.Max {
		return fmt.Errorf("rating.threshold (%d) must lie within [%d, %d]",
			c.Rating.Threshold, c.Rating.Min, c.Rating.Max)
	}
	if c.Pipeline.WaitTimeout < 0 {
		return fmt.Errorf("pipeline.wait_timeout must not be negative")
	}
	return nil
}
