package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"SERVER_HOST", "SERVER_PORT", "STORE_DRIVER", "DATABASE_URL", "SESSION_SECRET", "SESSION_TTL",
	"COOKIE_SECURE", "REDIS_ADDR", "REDIS_DB", "IDEMPOTENCY_TTL_SECONDS", "OVERDUE_SWEEP_SCHEDULE",
	"DEFAULT_AFTER_MISSED", "AMQP_URL", "LOG_LEVEL",
}

// clearEnv blanks every key so a developer's shell or .env cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil { // no .env here
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerHost != "127.0.0.1" || cfg.ServerPort != 3000 {
		t.Fatalf("addr defaults: %s:%d", cfg.ServerHost, cfg.ServerPort)
	}
	if cfg.ServerAddr() != "127.0.0.1:3000" {
		t.Fatalf("ServerAddr = %q", cfg.ServerAddr())
	}
	if cfg.StoreDriver != "sqlite" || cfg.DatabaseURL != "loans.db" {
		t.Fatalf("store defaults: %s %s", cfg.StoreDriver, cfg.DatabaseURL)
	}
	if cfg.SessionSecret == "" || !cfg.UsingDevSecret() {
		t.Fatal("expected built-in session secret")
	}
	if cfg.SessionTTL != 24*time.Hour || cfg.IdempotencyTTL() != 300*time.Second {
		t.Fatalf("ttl defaults: %v %v", cfg.SessionTTL, cfg.IdempotencyTTL())
	}
	if cfg.OverdueSweepSchedule != "@hourly" || cfg.DefaultAfterMissed != 3 {
		t.Fatalf("sweep defaults: %q %d", cfg.OverdueSweepSchedule, cfg.DefaultAfterMissed)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("STORE_DRIVER", "MySQL")
	t.Setenv("DATABASE_URL", "u:p@tcp(db:3306)/loans?parseTime=true")
	t.Setenv("SESSION_SECRET", strings.Repeat("s", 40))
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("DEFAULT_AFTER_MISSED", "5")
	t.Setenv("OVERDUE_SWEEP_SCHEDULE", "*/5 * * * *")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerAddr() != "0.0.0.0:8080" || cfg.StoreDriver != "mysql" {
		t.Fatalf("unexpected: %+v", cfg)
	}
	if cfg.SessionTTL != 90*time.Minute || !cfg.CookieSecure || cfg.UsingDevSecret() {
		t.Fatalf("session settings: %+v", cfg)
	}
	if cfg.RedisAddr != "redis:6379" || cfg.RedisDB != 2 || cfg.DefaultAfterMissed != 5 {
		t.Fatalf("unexpected: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "abc")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Fatalf("expected SERVER_PORT error, got %v", err)
	}
}

func TestLoad_InvalidSessionTTL(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_TTL", "forever")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate_Rejects(t *testing.T) {
	base := func() *Config {
		return &Config{
			ServerHost: "127.0.0.1", ServerPort: 3000, StoreDriver: "sqlite", DatabaseURL: "loans.db",
			SessionSecret: strings.Repeat("x", 32), SessionTTL: time.Hour, IdempTTLSecs: 300,
			OverdueSweepSchedule: "@hourly", DefaultAfterMissed: 3,
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("base config invalid: %v", err)
	}
	cases := map[string]func(c *Config){
		"port":     func(c *Config) { c.ServerPort = 70000 },
		"driver":   func(c *Config) { c.StoreDriver = "postgres" },
		"store":    func(c *Config) { c.DatabaseURL = " " },
		"secret":   func(c *Config) { c.SessionSecret = "short" },
		"ttl":      func(c *Config) { c.SessionTTL = 0 },
		"idemp":    func(c *Config) { c.IdempTTLSecs = 0 },
		"missed":   func(c *Config) { c.DefaultAfterMissed = 0 },
		"schedule": func(c *Config) { c.OverdueSweepSchedule = "sometimes" },
	}
	for name, mutate := range cases {
		c := base()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
