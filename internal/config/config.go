// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port       int           `yaml:"port"`
	JWTSecret  string        `yaml:"jwt_secret"`
	MetricsOn  bool          `yaml:"metrics"`
	RateLimit  int           `yaml:"rate_limit"` // intent creations per payer per window
	RateWindow time.Duration `yaml:"rate_window"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	EventTTL time.Duration `yaml:"event_ttl"` // processed webhook event cache
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
}

type PaymentConfig struct {
	Stripe              StripeConfig  `yaml:"stripe"`
	Currency            string        `yaml:"currency"`
	PendingTTL          time.Duration `yaml:"pending_ttl"`           // pending older than this is cancelled
	ReconcileInterval   time.Duration `yaml:"reconcile_interval"`    // sweep period
	ReconcileStaleAfter time.Duration `yaml:"reconcile_stale_after"` // pending age before a re-check
}

type MarketplaceConfig struct {
	ListingCeiling   int `yaml:"listing_ceiling"`    // absolute max active posts per owner
	FreeDailyActions int `yaml:"free_daily_actions"` // free chat actions before points are spent
}

type Config struct {
	Log         LogConfig         `yaml:"log"`
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Payment     PaymentConfig     `yaml:"payment"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RateLimit <= 0 {
		cfg.HTTP.RateLimit = 10
	}
	if cfg.HTTP.RateWindow <= 0 {
		cfg.HTTP.RateWindow = time.Minute
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.EventTTL <= 0 {
		cfg.Redis.EventTTL = 24 * time.Hour
	}
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "eur"
	}
	if cfg.Payment.PendingTTL <= 0 {
		cfg.Payment.PendingTTL = 24 * time.Hour
	}
	if cfg.Payment.ReconcileInterval <= 0 {
		cfg.Payment.ReconcileInterval = time.Minute
	}
	if cfg.Payment.ReconcileStaleAfter <= 0 {
		cfg.Payment.ReconcileStaleAfter = 10 * time.Minute
	}
	if cfg.Marketplace.ListingCeiling <= 0 {
		cfg.Marketplace.ListingCeiling = 10
	}
	if cfg.Marketplace.FreeDailyActions <= 0 {
		cfg.Marketplace.FreeDailyActions = 5
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Payment.Stripe.SecretKey == "" {
		return nil, errors.New("payment.stripe.secret_key is required")
	}
	if cfg.Payment.Stripe.WebhookSecret == "" {
		return nil, errors.New("payment.stripe.webhook_secret is required")
	}
	if cfg.HTTP.JWTSecret == "" {
		return nil, errors.New("http.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
