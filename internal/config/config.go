package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	RedisAddr     string
	ClickHouseDSN string
	PostgresDSN   string
	ServiceName   string
	// Reward ledger collaborator
	LedgerURL         string
	LedgerReadTimeout time.Duration
	// Fallback caps used when the ledger cannot report its own
	DefaultMaxAdViewsPerDay        int
	DefaultMaxAdsPerYoutubeSession int
	// Playback simulation
	ProgressTickInterval time.Duration
	ProgressStep         int
	// Campaign selection policy: "random" or "budget_weighted"
	CampaignSelector string
	// Read-through cache of ledger aggregates
	CacheTTL time.Duration
	// Reward claim signing
	ClaimSecret string
	// Session lifecycle
	SessionIdleTTL      time.Duration
	SessionReapInterval time.Duration
	// Per-user session start limiter
	StartLimitEnabled    bool
	StartLimitCapacity   int
	StartLimitRefillRate int
	// Catalog reload cadence
	ReloadInterval time.Duration
	// Database connection pooling configuration
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
	// ClickHouse connection pooling configuration
	CHMaxOpenConns    int
	CHMaxIdleConns    int
	CHConnMaxLifetime time.Duration
	CHConnMaxIdleTime time.Duration
	// Tracing configuration
	TracingEnabled    bool
	TracingEndpoint   string
	TracingSampleRate float64
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent. A .env file in the working directory
// is read first when present; real environment variables take precedence.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{}

	cfg.Port = getenv("PORT", "8788")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 5*time.Second)
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 10*time.Second)
	cfg.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")
	cfg.ClickHouseDSN = getenv("CLICKHOUSE_DSN", "clickhouse://default:@localhost:9000/default?async_insert=1&wait_for_async_insert=1")
	cfg.PostgresDSN = getenv("POSTGRES_DSN", "postgres://postgres@127.0.0.1:5432/postgres?sslmode=disable")
	cfg.ServiceName = getenv("SERVICE_NAME", "adreward")

	cfg.LedgerURL = getenv("LEDGER_URL", "http://localhost:8080")
	// applies to reads only; the reward call has no client-side deadline
	cfg.LedgerReadTimeout = envDuration("LEDGER_READ_TIMEOUT", 2*time.Second)

	cfg.DefaultMaxAdViewsPerDay = envInt("DEFAULT_MAX_AD_VIEWS_PER_DAY", 20)
	cfg.DefaultMaxAdsPerYoutubeSession = envInt("DEFAULT_MAX_ADS_PER_YOUTUBE_SESSION", 3)

	cfg.ProgressTickInterval = envDuration("PROGRESS_TICK_INTERVAL", 100*time.Millisecond)
	cfg.ProgressStep = envInt("PROGRESS_STEP", 2)

	cfg.CampaignSelector = getenv("CAMPAIGN_SELECTOR", "random")
	cfg.CacheTTL = envDuration("CACHE_TTL", 5*time.Minute)

	cfg.ClaimSecret = getenv("CLAIM_SECRET", "")

	cfg.SessionIdleTTL = envDuration("SESSION_IDLE_TTL", 30*time.Minute)
	cfg.SessionReapInterval = envDuration("SESSION_REAP_INTERVAL", time.Minute)

	cfg.StartLimitEnabled = envBool("START_RATE_LIMIT_ENABLED", true)
	cfg.StartLimitCapacity = envInt("START_RATE_LIMIT_CAPACITY", 10)
	cfg.StartLimitRefillRate = envInt("START_RATE_LIMIT_REFILL_RATE", 1)

	// default to 30 seconds between automatic catalog reloads
	cfg.ReloadInterval = envDuration("RELOAD_INTERVAL", 30*time.Second)

	// Database connection pooling configuration
	cfg.DBMaxOpenConns = envInt("DB_MAX_OPEN_CONNS", 25)
	cfg.DBMaxIdleConns = envInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	cfg.DBConnMaxIdleTime = envDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute)

	// ClickHouse connection pooling configuration
	cfg.CHMaxOpenConns = envInt("CH_MAX_OPEN_CONNS", 25)
	cfg.CHMaxIdleConns = envInt("CH_MAX_IDLE_CONNS", 5)
	cfg.CHConnMaxLifetime = envDuration("CH_CONN_MAX_LIFETIME", 5*time.Minute)
	cfg.CHConnMaxIdleTime = envDuration("CH_CONN_MAX_IDLE_TIME", 1*time.Minute)

	// Tracing configuration
	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TracingEndpoint = getenv("TRACING_ENDPOINT", "tempo:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0) // Default to 100% sampling for dev

	return cfg
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
