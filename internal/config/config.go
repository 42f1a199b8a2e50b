package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string
	LogLevel        string
	HTTPPort        string
	DBDriver        string
	DatabaseURL     string
	RedisAddr       string
	QueueBackend    string
	ExportTTL       time.Duration
	RateLimitPerMin int
	CORSOrigins     []string

	// Warnings collects invalid values that fell back to defaults. They are
	// logged by the caller once a logger exists.
	Warnings []string
}

// Load reads an optional .env file and returns application config populated
// from environment variables with sensible defaults.
func Load() App {
	var warnings []string
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		warnings = append(warnings, fmt.Sprintf("could not read .env: %v", err))
	}
	return load(warnings)
}

func load(warnings []string) App {
	l := &loader{warnings: warnings}
	cfg := App{
		Env:             l.getEnv("APP_ENV", "dev"),
		LogLevel:        l.getEnv("LOG_LEVEL", ""),
		HTTPPort:        l.getEnv("HTTP_PORT", "8081"),
		DBDriver:        l.getEnv("DB_DRIVER", "sqlite3"),
		DatabaseURL:     l.getEnv("DATABASE_URL", "data.db"),
		RedisAddr:       l.getEnv("REDIS_ADDR", "localhost:6379"),
		QueueBackend:    l.getEnv("QUEUE_BACKEND", "memory"),
		ExportTTL:       l.durationEnv("EXPORT_TTL", time.Hour),
		RateLimitPerMin: l.intEnv("RATE_LIMIT_PER_MIN", 120),
		CORSOrigins:     l.listEnv("CORS_ORIGINS", []string{"*"}),
	}
	switch cfg.DBDriver {
	case "sqlite3", "pgx":
	default:
		l.warn("unknown DB_DRIVER %q, using sqlite3", cfg.DBDriver)
		cfg.DBDriver = "sqlite3"
	}
	switch cfg.QueueBackend {
	case "memory", "redis":
	default:
		l.warn("unknown QUEUE_BACKEND %q, using memory", cfg.QueueBackend)
		cfg.QueueBackend = "memory"
	}
	cfg.Warnings = l.warnings
	return cfg
}

// Production reports whether the app runs in a production environment.
func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod"
}

type loader struct {
	warnings []string
}

func (l *loader) warn(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *loader) getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func (l *loader) durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil || d <= 0 {
			l.warn("invalid duration for %s, using fallback %s", key, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func (l *loader) intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		l.warn("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}

func (l *loader) listEnv(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
