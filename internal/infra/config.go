package infra

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every static input to the system. It is loaded once at
// startup and never reloaded; secrets can be overridden via environment
// variables so they stay out of the config file.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Trading struct {
		Mode             string  `yaml:"mode"` // "REAL", "PAPER", "MOCK"
		Symbol           string  `yaml:"symbol"`
		InstType         string  `yaml:"inst_type"`
		OrderType        string  `yaml:"order_type"`
		TimeInForce      string  `yaml:"time_in_force"`
		OrderSize        string  `yaml:"order_size"`
		SpreadBps        float64 `yaml:"spread_bps"`
		TickSize         float64 `yaml:"tick_size"`
		QuoteIntervalSec int     `yaml:"quote_interval_sec"`
		PositionPollSec  int     `yaml:"position_poll_sec"`
	} `yaml:"trading"`

	API struct {
		Roxom struct {
			RestURL              string `yaml:"rest_url"`
			WSURL                string `yaml:"ws_url"`
			APIKey               string `yaml:"api_key"`
			ReconnectIntervalSec int    `yaml:"reconnect_interval_sec"`
		} `yaml:"roxom"`
		Binance struct {
			WSURL   string   `yaml:"ws_url"`
			Symbols []string `yaml:"symbols"`
		} `yaml:"binance"`
	} `yaml:"api"`

	Dashboard struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"dashboard"`

	History struct {
		Enabled bool   `yaml:"enabled"`
		DBPath  string `yaml:"db_path"`
	} `yaml:"history"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the yaml config, applies defaults and
// environment overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Trading.Mode == "" {
		c.Trading.Mode = "PAPER"
	}
	if c.Trading.OrderType == "" {
		c.Trading.OrderType = "limit"
	}
	if c.Trading.TimeInForce == "" {
		c.Trading.TimeInForce = "gtc"
	}
	if c.Trading.QuoteIntervalSec <= 0 {
		c.Trading.QuoteIntervalSec = 5
	}
	if c.Trading.PositionPollSec <= 0 {
		c.Trading.PositionPollSec = 1
	}
	if c.API.Roxom.ReconnectIntervalSec <= 0 {
		c.API.Roxom.ReconnectIntervalSec = 5
	}
	if c.Dashboard.Host == "" {
		c.Dashboard.Host = "localhost"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8000
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Trading.Symbol == "" {
		return fmt.Errorf("trading symbol is required")
	}
	if c.Trading.OrderSize == "" {
		return fmt.Errorf("order size is required")
	}
	if c.Trading.SpreadBps < 0 {
		return fmt.Errorf("spread_bps must not be negative")
	}
	if c.Trading.TickSize <= 0 {
		return fmt.Errorf("tick_size must be positive")
	}

	if !isWSURL(c.API.Binance.WSURL) {
		return fmt.Errorf("invalid Binance WS URL: %s", c.API.Binance.WSURL)
	}
	if len(c.API.Binance.Symbols) < 2 {
		return fmt.Errorf("two Binance price symbols are required, got %d", len(c.API.Binance.Symbols))
	}

	if !isWSURL(c.API.Roxom.WSURL) {
		return fmt.Errorf("invalid Roxom WS URL: %s", c.API.Roxom.WSURL)
	}
	if c.API.Roxom.RestURL == "" {
		return fmt.Errorf("Roxom REST URL is required")
	}

	switch strings.ToUpper(c.Trading.Mode) {
	case "REAL", "PAPER", "MOCK":
	default:
		return fmt.Errorf("unknown trading mode: %s", c.Trading.Mode)
	}

	return nil
}

// QuoteInterval returns the quoting period as a duration.
func (c *Config) QuoteInterval() time.Duration {
	return time.Duration(c.Trading.QuoteIntervalSec) * time.Second
}

// PositionPollInterval returns the position polling period.
func (c *Config) PositionPollInterval() time.Duration {
	return time.Duration(c.Trading.PositionPollSec) * time.Second
}

// ReconnectInterval returns the private-feed reconnect delay.
func (c *Config) ReconnectInterval() time.Duration {
	return time.Duration(c.API.Roxom.ReconnectIntervalSec) * time.Second
}

func isWSURL(s string) bool {
	return strings.HasPrefix(s, "ws://") || strings.HasPrefix(s, "wss://")
}

// overrideWithEnv lets environment variables win over file values for
// secrets, so keys never need to live in the config file.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("ROXOM_API_KEY"); key != "" {
		cfg.API.Roxom.APIKey = key
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Logging.Level = lvl
	}
}
