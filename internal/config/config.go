package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DevAdminPassword is used when ADMIN_PASSWORD is unset outside production.
const DevAdminPassword = "admin123"

type Config struct {
	Port               string   `env:"PORT" envDefault:"8080"`
	Env                string   `env:"APP_ENV" envDefault:"development"`
	AdminPassword      string   `env:"ADMIN_PASSWORD"`
	ContentDir         string   `env:"CONTENT_DIR" envDefault:"content/posts"`
	SiteTitle          string   `env:"SITE_TITLE" envDefault:"Minimal Blog"`
	CorsAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFile            string   `env:"LOG_FILE"`
	CacheListings      bool     `env:"CACHE_LISTINGS" envDefault:"true"`
	WatchContent       bool     `env:"WATCH_CONTENT" envDefault:"true"`
	LoginRateLimit     int      `env:"LOGIN_RATE_LIMIT" envDefault:"0"`

	// UsingDevPassword is set when AdminPassword fell back to DevAdminPassword.
	UsingDevPassword bool
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	cfg.AdminPassword = strings.TrimSpace(cfg.AdminPassword)
	cfg.CorsAllowedOrigins = cleanCSV(cfg.CorsAllowedOrigins)

	if cfg.AdminPassword == "" {
		if cfg.IsProduction() {
			return Config{}, errors.New("ADMIN_PASSWORD is required in production")
		}
		cfg.AdminPassword = DevAdminPassword
		cfg.UsingDevPassword = true
	}
	if cfg.IsProduction() && cfg.AdminPassword == DevAdminPassword {
		return Config{}, errors.New("ADMIN_PASSWORD must not be the development default in production")
	}
	if cfg.LoginRateLimit < 0 {
		return Config{}, fmt.Errorf("LOGIN_RATE_LIMIT must not be negative, got %d", cfg.LoginRateLimit)
	}

	return cfg, nil
}

func cleanCSV(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		item := strings.TrimSpace(value)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
