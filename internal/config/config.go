package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request handler budget

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Admin settings. The file is optional; env values are the defaults it overrides.
	SettingsFile           string
	SettingsReloadInterval time.Duration
	ChallengesContainer    string   // container holding the challenges collection
	FeedbackContainer      string   // container holding the feedback collection
	Admins                 []string // user keys with admin rights on every container

	// Redis
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisWarnThreshold  int           // warn after this many attempts

	// Access restrictions
	AllowedHosts []string // optional, restrict the API to specific Host headers
	AllowedCIDRS []string // optional, restrict infra endpoints to these networks
	TrustProxy   bool     // true => trust X-Forwarded-For headers

	RateLimitBurst     int // mutations allowed in a burst per actor
	RateLimitPerMinute int // sustained mutations per actor per minute
}

func Load() *Config {
	cfg := &Config{
		ListenPort:      getenv("HERALD_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("HERALD_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("HERALD_REQUEST_TIMEOUT", 10*time.Second),

		LogLevel:  getenv("HERALD_LOG_LEVEL", "info"),
		PrettyLog: mustBool("HERALD_PRETTY_LOG", true),

		SettingsFile:           getenv("HERALD_SETTINGS_FILE", ""),
		SettingsReloadInterval: mustDuration("HERALD_SETTINGS_RELOAD_INTERVAL", time.Minute),
		ChallengesContainer:    getenv("HERALD_CHALLENGES_CONTAINER", ""),
		FeedbackContainer:      getenv("HERALD_FEEDBACK_CONTAINER", ""),
		Admins:                 splitAndTrim(getenv("HERALD_ADMINS", "")),

		RedisAddr:           requireEnv("HERALD_REDIS_ADDR"),
		RedisUser:           getenv("HERALD_REDIS_USERNAME", ""),
		RedisPassword:       getenv("HERALD_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("HERALD_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		AllowedHosts: splitAndTrim(getenv("HERALD_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("HERALD_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("HERALD_TRUST_PROXY", false),

		RateLimitBurst:     getenvInt("HERALD_RATE_LIMIT_BURST", 30),
		RateLimitPerMinute: getenvInt("HERALD_RATE_LIMIT_PER_MIN", 120),
	}

	if cfg.SettingsReloadInterval <= 0 {
		panic("❌ FATAL: HERALD_SETTINGS_RELOAD_INTERVAL must be positive")
	}

	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
