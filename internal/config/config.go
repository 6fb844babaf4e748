// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tathienbao/signal-relay/internal/engine"
	"github.com/tathienbao/signal-relay/internal/terminal/mt5"
	"github.com/tathienbao/signal-relay/internal/types"
	"gopkg.in/yaml.v3"
)

// Config represents the full application configuration.
type Config struct {
	Terminal  TerminalConfig  `yaml:"terminal"`
	Trading   TradingConfig   `yaml:"trading"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Reporting ReportingConfig `yaml:"reporting"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Journal   JournalConfig   `yaml:"journal"`
	Shutdown  ShutdownConfig  `yaml:"shutdown"`
}

// TerminalConfig holds trading-terminal connection settings.
type TerminalConfig struct {
	Type                 string `yaml:"type"` // mt5 | sim
	Host                 string `yaml:"host"`
	Port                 int    `yaml:"port"`
	ConnectTimeoutSec    int    `yaml:"connect_timeout_sec"`
	RequestTimeoutSec    int    `yaml:"request_timeout_sec"`
	MaxRequestsPerSecond int    `yaml:"max_requests_per_second"`
	AutoReconnect        bool   `yaml:"auto_reconnect"`
}

// TradingConfig holds fixed per-deployment order parameters.
type TradingConfig struct {
	LotSize         float64 `yaml:"lot_size"`
	MinLot          float64 `yaml:"min_lot"`
	DeviationPoints int     `yaml:"deviation_points"`
	Magic           int64   `yaml:"magic"`
	OpenComment     string  `yaml:"open_comment"`
	CloseComment    string  `yaml:"close_comment"`
	ModifyComment   string  `yaml:"modify_comment"`
}

// IngestConfig holds signal-ingestion settings.
type IngestConfig struct {
	Source string `yaml:"source"` // stdin | tcp
	Listen string `yaml:"listen"` // for tcp
}

// ReportingConfig holds outcome-reporting settings.
type ReportingConfig struct {
	Enabled  bool            `yaml:"enabled"`
	Channels []ChannelConfig `yaml:"channels"`
}

// ChannelConfig holds a single report channel configuration.
type ChannelConfig struct {
	Type     string `yaml:"type"` // telegram | console
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// JournalConfig holds execution-journal settings.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ShutdownConfig holds shutdown settings.
type ShutdownConfig struct {
	TimeoutSec int `yaml:"timeout_sec"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := defaults()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// defaults returns the configuration used when fields are omitted. The
// trading defaults mirror the historical deployment: 0.01 lots, 20 points
// deviation, magic 234000.
func defaults() Config {
	return Config{
		Terminal: TerminalConfig{
			Type:                 "mt5",
			Host:                 "127.0.0.1",
			Port:                 18812,
			ConnectTimeoutSec:    10,
			RequestTimeoutSec:    30,
			MaxRequestsPerSecond: 20,
			AutoReconnect:        true,
		},
		Trading: TradingConfig{
			LotSize:         0.01,
			MinLot:          0.01,
			DeviationPoints: 20,
			Magic:           234000,
			OpenComment:     "TG Signal",
			CloseComment:    "TG Close",
			ModifyComment:   "TG Modify",
		},
		Ingest: IngestConfig{
			Source: "stdin",
			Listen: "127.0.0.1:7100",
		},
		Metrics: MetricsConfig{
			Port: 9090,
			Path: "/metrics",
		},
		Shutdown: ShutdownConfig{
			TimeoutSec: 10,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	switch c.Terminal.Type {
	case "mt5", "sim":
	default:
		errs = append(errs, "terminal.type must be 'mt5' or 'sim'")
	}
	if c.Terminal.Type == "mt5" {
		if c.Terminal.Host == "" {
			errs = append(errs, "terminal.host is required")
		}
		if c.Terminal.Port <= 0 || c.Terminal.Port > 65535 {
			errs = append(errs, "terminal.port must be a valid port")
		}
	}
	if c.Terminal.MaxRequestsPerSecond <= 0 {
		errs = append(errs, "terminal.max_requests_per_second must be positive")
	}

	if c.Trading.LotSize <= 0 {
		errs = append(errs, "trading.lot_size must be positive")
	}
	if c.Trading.MinLot <= 0 {
		errs = append(errs, "trading.min_lot must be positive")
	}
	if c.Trading.LotSize < c.Trading.MinLot {
		errs = append(errs, "trading.lot_size must be at least trading.min_lot")
	}
	if c.Trading.DeviationPoints < 0 {
		errs = append(errs, "trading.deviation_points must not be negative")
	}

	switch c.Ingest.Source {
	case "stdin":
	case "tcp":
		if c.Ingest.Listen == "" {
			errs = append(errs, "ingest.listen is required for tcp source")
		}
	default:
		errs = append(errs, "ingest.source must be 'stdin' or 'tcp'")
	}

	if c.Reporting.Enabled {
		for i, ch := range c.Reporting.Channels {
			switch ch.Type {
			case "console":
			case "telegram":
				if ch.BotToken == "" || ch.ChatID == "" {
					errs = append(errs, fmt.Sprintf("reporting.channels[%d]: telegram requires bot_token and chat_id", i))
				}
			default:
				errs = append(errs, fmt.Sprintf("reporting.channels[%d]: unknown type '%s'", i, ch.Type))
			}
		}
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when journal is enabled")
	}

	if c.Shutdown.TimeoutSec <= 0 {
		errs = append(errs, "shutdown.timeout_sec must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", types.ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

// ToEngineConfig converts to engine.Config.
func (c *Config) ToEngineConfig() engine.Config {
	return engine.Config{
		LotSize:         decimal.NewFromFloat(c.Trading.LotSize),
		MinLot:          decimal.NewFromFloat(c.Trading.MinLot),
		DeviationPoints: c.Trading.DeviationPoints,
		Magic:           c.Trading.Magic,
		OpenComment:     c.Trading.OpenComment,
		CloseComment:    c.Trading.CloseComment,
		ModifyComment:   c.Trading.ModifyComment,
	}
}

// ToMT5Config converts to mt5.Config.
func (c *Config) ToMT5Config() mt5.Config {
	return mt5.Config{
		Host:                 c.Terminal.Host,
		Port:                 c.Terminal.Port,
		ConnectTimeout:       time.Duration(c.Terminal.ConnectTimeoutSec) * time.Second,
		RequestTimeout:       time.Duration(c.Terminal.RequestTimeoutSec) * time.Second,
		MaxRequestsPerSecond: c.Terminal.MaxRequestsPerSecond,
		AutoReconnect:        c.Terminal.AutoReconnect,
	}
}

// ShutdownTimeout returns the shutdown timeout duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Shutdown.TimeoutSec) * time.Second
}
