package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything read from the environment at startup.
type Config struct {
	Env      string // "dev" or "prod"
	HTTPAddr string

	DBDriver string // "postgres" or "sqlite3"
	DBDSN    string

	// Optional integrations. Empty means disabled.
	RedisAddr     string
	TelegramToken string

	CORSOrigins []string

	// Rollover band sizes and the minimum tier size relegation must
	// leave behind.
	PromoteCount  int
	RelegateCount int
	MinTierSize   int

	WindowSize int // leaderboard window size
}

// Load reads .env (if present) and the environment, applies defaults and
// returns the config. Defaults keep the service runnable locally with
// SQLite and no external integrations.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Env:           getEnv("APP_ENV", "dev"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		DBDriver:      getEnv("DB_DRIVER", "sqlite3"),
		DBDSN:         getEnv("DB_DSN", "data/provalab.db"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		PromoteCount:  getEnvInt("LEAGUE_PROMOTE_COUNT", 3),
		RelegateCount: getEnvInt("LEAGUE_RELEGATE_COUNT", 3),
		MinTierSize:   getEnvInt("LEAGUE_MIN_TIER_SIZE", 5),
		WindowSize:    getEnvInt("LEADERBOARD_WINDOW_SIZE", 5),
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitAndTrim(origins)
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
