// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all environment-driven settings.
type Config struct {
	Environment string `envconfig:"VOICEBOARD_ENV" default:"development"`

	Runtime struct {
		BaseURL string        `envconfig:"RUNTIME_API_URL" default:"http://localhost:8085"`
		APIKey  string        `envconfig:"RUNTIME_API_KEY"`
		Timeout time.Duration `envconfig:"RUNTIME_API_TIMEOUT" default:"30s"`
	}

	ToolGen struct {
		BaseURL string        `envconfig:"TOOLGEN_API_URL"`
		Timeout time.Duration `envconfig:"TOOLGEN_API_TIMEOUT" default:"60s"`
	}

	Sheets struct {
		BaseURL string        `envconfig:"SHEETS_API_URL"`
		Timeout time.Duration `envconfig:"SHEETS_API_TIMEOUT" default:"30s"`
	}

	Extract struct {
		BaseURL string        `envconfig:"EXTRACT_API_URL"`
		Timeout time.Duration `envconfig:"EXTRACT_API_TIMEOUT" default:"120s"`
	}

	Autosave struct {
		Debounce time.Duration `envconfig:"AUTOSAVE_DEBOUNCE" default:"2s"`
	}

	DataDir string `envconfig:"VOICEBOARD_DATA_DIR"`
}

// Load reads .env (when present) and binds the typed config.
func Load() (*Config, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".voiceboard")
	}
	return &cfg, nil
}
