package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "PORT", "DB_DRIVER", "DATABASE_URL", "DB_USER", "DB_PASS", "DB_HOST", "DB_PORT", "DB_NAME",
		"CORS_ORIGIN", "PAYMENT_SECRET", "PAYMENT_TTL", "RABBITMQ_URL", "AMQP_URL", "QUEUE_ENABLED",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "dev" || cfg.Port != "3001" || cfg.DatabaseURL != "file:racecraft.db" {
		t.Errorf("defaults = %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.PaymentSecret == "" || cfg.PaymentTTL != time.Hour || cfg.QueueEnabled {
		t.Errorf("payment/queue defaults = %+v", cfg)
	}
}

func TestLoadBuildsMySQLDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_USER", "race")
	t.Setenv("DB_PASS", "pw")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "racecraft")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBDriver != "mysql" || !strings.Contains(cfg.DatabaseURL, "race:pw@tcp(db:3306)/racecraft") {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, k := range []string{"DB_USER", "DB_HOST", "DB_NAME", "PAYMENT_SECRET"} {
		if !strings.Contains(err.Error(), k) {
			t.Errorf("error %q does not name %s", err, k)
		}
	}
}

func TestEnvList(t *testing.T) {
	t.Setenv("CORS_ORIGIN", " https://a.example , ,https://b.example")
	got := envList("CORS_ORIGIN", nil)
	if strings.Join(got, "|") != "https://a.example|https://b.example" {
		t.Errorf("envList = %v", got)
	}
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	c := LoadRateLimitConfig()
	if c.Capacity != 1 || c.TTL != 10*time.Second {
		t.Errorf("clamped = %+v", c)
	}
}

func TestLoadCacheAndIdempotencyConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("IDEMPOTENCY_TTL", "")

	c := LoadCacheConfig()
	if !c.Methods["GET"] || !c.Methods["HEAD"] || c.KeyStrategy != "route_query" {
		t.Errorf("cache = %+v", c)
	}
	if i := LoadIdempotencyConfig(); i.TTL != 24*time.Hour || !i.Enabled {
		t.Errorf("idempotency = %+v", i)
	}
}
