// Package config reads menuboard settings from the environment, after an
// optional .env file in the working directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	APIURL       string        `env:"MENUBOARD_API_URL" envDefault:"http://localhost:8080"`
	StatePath    string        `env:"MENUBOARD_STATE" envDefault:"~/.config/menuboard/state.db"`
	ServerDB     string        `env:"MENUBOARD_DB" envDefault:"~/.config/menuboard/menu.db"`
	DBConnection string        `env:"MENUBOARD_DB_CONNECTION"`
	ListenAddr   string        `env:"MENUBOARD_ADDR" envDefault:":8080"`
	Debug        bool          `env:"MENUBOARD_DEBUG"`
	CacheTTL     time.Duration `env:"MENUBOARD_CACHE_TTL" envDefault:"10m"`
	QuotaSweep   time.Duration `env:"MENUBOARD_QUOTA_SWEEP" envDefault:"60s"`
	HTTPTimeout  time.Duration `env:"MENUBOARD_HTTP_TIMEOUT" envDefault:"10s"`
	RateLimit    float64       `env:"MENUBOARD_RATE_LIMIT" envDefault:"5"`
	RateBurst    int           `env:"MENUBOARD_RATE_BURST" envDefault:"10"`
}

// Load reads .env (if present) and then the process environment. Variables
// already set in the environment win over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads only the process environment.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.CacheTTL <= 0 {
		return Config{}, fmt.Errorf("MENUBOARD_CACHE_TTL must be positive, got %s", cfg.CacheTTL)
	}
	return cfg, nil
}

// ExpandHome resolves a leading ~ to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
