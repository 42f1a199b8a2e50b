package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "HTTP_PORT", "DB_DRIVER", "DATABASE_URL", "QUEUE_BACKEND", "EXPORT_TTL", "RATE_LIMIT_PER_MIN", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg := load(nil)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "data.db", cfg.DatabaseURL)
	assert.Equal(t, "memory", cfg.QueueBackend)
	assert.Equal(t, time.Hour, cfg.ExportTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.Warnings)
	assert.False(t, cfg.Production())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DATABASE_URL", "postgres://hifz@localhost/hifz")
	t.Setenv("QUEUE_BACKEND", "redis")
	t.Setenv("EXPORT_TTL", "15m")
	t.Setenv("RATE_LIMIT_PER_MIN", "30")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg := load(nil)

	assert.True(t, cfg.Production())
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "redis", cfg.QueueBackend)
	assert.Equal(t, 15*time.Minute, cfg.ExportTTL)
	assert.Equal(t, 30, cfg.RateLimitPerMin)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadInvalidValuesFallBackWithWarnings(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("QUEUE_BACKEND", "kafka")
	t.Setenv("EXPORT_TTL", "soon")
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")

	cfg := load(nil)

	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "memory", cfg.QueueBackend)
	assert.Equal(t, time.Hour, cfg.ExportTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.Len(t, cfg.Warnings, 4)
}
