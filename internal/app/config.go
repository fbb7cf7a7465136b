package app

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all the necessary configuration for an App instance to run.
// Every field can be set from the environment; command-line flags override
// the environment.
type Config struct {
	ListenAddr   string `env:"NODEREG_LISTEN_ADDR" envDefault:":1880"`
	CatalogDir   string `env:"NODEREG_CATALOG_DIR" envDefault:"catalog"`
	InstallDir   string `env:"NODEREG_INSTALL_DIR" envDefault:"nodes"`
	SettingsPath string `env:"NODEREG_SETTINGS_PATH" envDefault:"nodereg.db"`

	LogFormat    string `env:"NODEREG_LOG_FORMAT" envDefault:"json"`
	LogLevel     string `env:"NODEREG_LOG_LEVEL" envDefault:"info"`
	NotifyBuffer int    `env:"NODEREG_NOTIFY_BUFFER" envDefault:"256"`
	// ReadOnly keeps the settings store from accepting changes, which
	// refuses every registry mutation.
	ReadOnly bool `env:"NODEREG_READ_ONLY"`
}

// ConfigFromEnv returns the configuration described by the environment,
// with defaults for anything unset.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// NewConfig validates cfg and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ListenAddr == "" {
		return nil, errors.New("ListenAddr is a required configuration field and cannot be empty")
	}
	if cfg.InstallDir == "" {
		return nil, errors.New("InstallDir is a required configuration field and cannot be empty")
	}
	if cfg.CatalogDir == "" {
		return nil, errors.New("CatalogDir is a required configuration field and cannot be empty")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format '%s': must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level '%s': must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.NotifyBuffer < 0 {
		return nil, fmt.Errorf("NotifyBuffer must not be negative, got %d", cfg.NotifyBuffer)
	}
	return &cfg, nil
}
