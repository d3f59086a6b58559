package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"smart-loan-recovery/internal/infrastructure/scheduler"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devSessionSecret = "dev-only-session-secret-change-me-in-production-0123456789"

type Config struct {
	ServerHost string `mapstructure:"SERVER_HOST"`
	ServerPort int    `mapstructure:"SERVER_PORT"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	SessionSecret string        `mapstructure:"SESSION_SECRET"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TTL"`
	CookieSecure  bool          `mapstructure:"COOKIE_SECURE"`

	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	RedisDB      int    `mapstructure:"REDIS_DB"`
	IdempTTLSecs int    `mapstructure:"IDEMPOTENCY_TTL_SECONDS"`

	OverdueSweepSchedule string `mapstructure:"OVERDUE_SWEEP_SCHEDULE"`
	DefaultAfterMissed   int    `mapstructure:"DEFAULT_AFTER_MISSED"`

	AMQPURL  string `mapstructure:"AMQP_URL"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]any{
	"SERVER_HOST":             "127.0.0.1",
	"SERVER_PORT":             3000,
	"STORE_DRIVER":            "sqlite",
	"DATABASE_URL":            "loans.db",
	"SESSION_SECRET":          devSessionSecret,
	"SESSION_TTL":             "24h",
	"COOKIE_SECURE":           false,
	"REDIS_ADDR":              "",
	"REDIS_DB":                0,
	"IDEMPOTENCY_TTL_SECONDS": 300,
	"OVERDUE_SWEEP_SCHEDULE":  "@hourly",
	"DEFAULT_AFTER_MISSED":    3,
	"AMQP_URL":                "",
	"LOG_LEVEL":               "info",
}

// Load reads .env (if present) and the environment. Unset variables fall back
// to defaults; values that do not parse are an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
		_ = v.BindEnv(k)
	}
	v.AutomaticEnv()

	// viper silently maps bad numbers to zero; check them up front
	for _, k := range []string{"SERVER_PORT", "REDIS_DB", "IDEMPOTENCY_TTL_SECONDS", "DEFAULT_AFTER_MISSED"} {
		if raw := strings.TrimSpace(v.GetString(k)); raw != "" {
			if _, err := strconv.Atoi(raw); err != nil {
				return nil, fmt.Errorf("invalid %s %q", k, raw)
			}
		}
	}
	if _, err := time.ParseDuration(v.GetString("SESSION_TTL")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	return &c, nil
}

func (c *Config) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.ServerPort)
	}
	if c.StoreDriver != "sqlite" && c.StoreDriver != "mysql" {
		return fmt.Errorf("invalid STORE_DRIVER %q (must be 'sqlite' or 'mysql')", c.StoreDriver)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("missing DATABASE_URL")
	}
	if len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 bytes")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.IdempTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS must be positive")
	}
	if c.DefaultAfterMissed < 1 {
		return errors.New("DEFAULT_AFTER_MISSED must be at least 1")
	}
	if err := scheduler.Validate(c.OverdueSweepSchedule); err != nil {
		return fmt.Errorf("invalid OVERDUE_SWEEP_SCHEDULE %q: %w", c.OverdueSweepSchedule, err)
	}
	return nil
}

func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.ServerHost, strconv.Itoa(c.ServerPort))
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

// UsingDevSecret reports whether the built-in session secret is in use.
func (c *Config) UsingDevSecret() bool { return c.SessionSecret == devSessionSecret }
