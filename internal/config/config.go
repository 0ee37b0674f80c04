package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ehr/portal/internal/platform/phone"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	DefaultCountry string        `mapstructure:"DEFAULT_COUNTRY"`
	GeoHeader      string        `mapstructure:"GEO_HEADER"`
	GeoCacheMaxAge time.Duration `mapstructure:"GEO_CACHE_MAX_AGE"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "REDIS_URL",
	"JWT_SECRET", "ACCESS_TOKEN_TTL", "CORS_ORIGINS", "DEFAULT_COUNTRY",
	"GEO_HEADER", "GEO_CACHE_MAX_AGE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

// devSecret signs tokens in development when JWT_SECRET is unset.
const devSecret = "development-only-secret-change-me"

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("ACCESS_TOKEN_TTL", "1h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DEFAULT_COUNTRY", phone.DefaultCountry)
	v.SetDefault("GEO_HEADER", "CF-IPCountry")
	v.SetDefault("GEO_CACHE_MAX_AGE", "24h")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	cfg.DefaultCountry = strings.ToUpper(strings.TrimSpace(cfg.DefaultCountry))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" && cfg.IsDev() {
		cfg.JWTSecret = devSecret
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if c.IsProduction() && c.JWTSecret == devSecret {
		return fmt.Errorf("JWT_SECRET must be changed in production")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters, got %d", len(c.JWTSecret))
	}
	if _, ok := phone.Lookup(c.DefaultCountry); !ok {
		return fmt.Errorf("DEFAULT_COUNTRY %q is not a registered country", c.DefaultCountry)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.GeoCacheMaxAge <= 0 {
		return fmt.Errorf("GEO_CACHE_MAX_AGE must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
