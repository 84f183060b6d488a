// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	PublicBaseURL   string        `yaml:"public_base_url"` // used for checkout redirects when set
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // postgres|sqlite|memory
	URL        string `yaml:"url"`
	SQLitePath string `yaml:"sqlite_path"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// TokenStore moves promo tokens from the database to Redis.
	TokenStore bool `yaml:"token_store"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
}

type PaymentConfig struct {
	Provider string `yaml:"provider"` // stripe|noop
	Stripe   struct {
		SecretKey string        `yaml:"secret_key"`
		BaseURL   string        `yaml:"base_url"`
		Currency  string        `yaml:"currency"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"stripe"`
	Breaker BreakerConfig `yaml:"breaker"`
}

type PromoConfig struct {
	TokenTTL      time.Duration `yaml:"token_ttl"`
	GrantHours    int           `yaml:"grant_hours"`
	SweepSchedule string        `yaml:"sweep_schedule"`
}

type CodesConfig struct {
	PaidSingleUse bool `yaml:"paid_single_use"`
}

type RateLimitConfig struct {
	PromoPerMinute    int `yaml:"promo_per_minute"`
	ValidatePerMinute int `yaml:"validate_per_minute"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Payment   PaymentConfig   `yaml:"payment"`
	Promo     PromoConfig     `yaml:"promo"`
	Codes     CodesConfig     `yaml:"codes"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path (missing file means all defaults),
// loads .env if present and applies environment overrides for secrets.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
		if cfg.Database.Driver == "" {
			cfg.Database.Driver = "postgres"
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		cfg.Payment.Stripe.SecretKey = v
		if cfg.Payment.Provider == "" {
			cfg.Payment.Provider = "stripe"
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			cfg.Server.Addr = ":" + v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":3000"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 20 * time.Second
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "memory"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "toolix.db"
	}
	cfg.Payment.Provider = strings.ToLower(cfg.Payment.Provider)
	if cfg.Payment.Provider == "" {
		cfg.Payment.Provider = "noop"
	}
	if cfg.Payment.Stripe.BaseURL == "" {
		cfg.Payment.Stripe.BaseURL = "https://api.stripe.com"
	}
	if cfg.Payment.Stripe.Currency == "" {
		cfg.Payment.Stripe.Currency = "usd"
	}
	if cfg.Payment.Stripe.Timeout <= 0 {
		cfg.Payment.Stripe.Timeout = 15 * time.Second
	}
	if cfg.Payment.Breaker.MaxRequests == 0 {
		cfg.Payment.Breaker.MaxRequests = 1
	}
	if cfg.Payment.Breaker.Interval <= 0 {
		cfg.Payment.Breaker.Interval = time.Minute
	}
	if cfg.Payment.Breaker.Timeout <= 0 {
		cfg.Payment.Breaker.Timeout = 30 * time.Second
	}
	if cfg.Payment.Breaker.FailureThreshold == 0 {
		cfg.Payment.Breaker.FailureThreshold = 5
	}
	if cfg.Promo.TokenTTL <= 0 {
		cfg.Promo.TokenTTL = 5 * time.Minute
	}
	if cfg.Promo.GrantHours <= 0 {
		cfg.Promo.GrantHours = 2
	}
	if cfg.Promo.SweepSchedule == "" {
		cfg.Promo.SweepSchedule = "@every 5m"
	}
	if cfg.RateLimit.PromoPerMinute <= 0 {
		cfg.RateLimit.PromoPerMinute = 10
	}
	if cfg.RateLimit.ValidatePerMinute <= 0 {
		cfg.RateLimit.ValidatePerMinute = 30
	}
}

// Validate performs minimal validation of the loaded settings.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres driver")
		}
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	switch c.Payment.Provider {
	case "stripe":
		if c.Payment.Stripe.SecretKey == "" {
			return errors.New("payment.stripe.secret_key is required for the stripe provider")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown payment.provider %q", c.Payment.Provider)
	}
	if c.Redis.TokenStore && c.Redis.URL == "" {
		return errors.New("redis.url is required when redis.token_store is enabled")
	}
	return nil
}
