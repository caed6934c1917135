package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// ScraperConfig groups the knobs that shape a scraping run.
type ScraperConfig struct {
	DelayMS        int
	MaxPages       int
	MaxRetries     int
	BackoffMS      int
	KeepIncomplete bool
	UARotation     bool
	AltSources     bool
	Proxy          string
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL       string
	JWTSecret         string
	Port              string
	RedisURL          string
	MonitorWebhookURL string
	AdminEmail        string
	AdminPassword     string
	RateLimitRuns     RateLimitConfig
	TokenTTL          time.Duration
	Scraper           ScraperConfig
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret"),
		Port:              getEnv("PORT", "8080"),
		RedisURL:          os.Getenv("REDIS_URL"),
		MonitorWebhookURL: os.Getenv("MONITOR_WEBHOOK_URL"),
		AdminEmail:        getEnv("ADMIN_EMAIL", "admin@localhost"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		TokenTTL:          parseDuration(getEnv("JWT_TTL", "24h")),
		Scraper: ScraperConfig{
			DelayMS:        parseInt(getEnv("SCRAPER_DELAY_MS", "1200"), 1200),
			MaxPages:       parseInt(getEnv("SCRAPER_MAX_PAGES", "6"), 6),
			MaxRetries:     parseInt(getEnv("SCRAPER_MAX_RETRIES", "3"), 3),
			BackoffMS:      parseInt(getEnv("SCRAPER_BACKOFF_MS", "1500"), 1500),
			KeepIncomplete: parseBool(getEnv("SCRAPER_KEEP_INCOMPLETE", "true"), true),
			UARotation:     parseBool(getEnv("SCRAPER_UA_ROTATION", "true"), true),
			AltSources:     parseBool(getEnv("SCRAPER_ALT_SOURCES", "true"), true),
			Proxy:          os.Getenv("SCRAPER_PROXY"),
		},
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_RUNS", "5/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RUNS value: %w", err)
	}
	cfg.RateLimitRuns = rl

	if cfg.Scraper.MaxPages < 1 {
		cfg.Scraper.MaxPages = 1
	}
	if cfg.Scraper.DelayMS < 0 {
		cfg.Scraper.DelayMS = 0
	}

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

func parseInt(input string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return fallback
	}
	return v
}

func parseBool(input string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(input))
	if err != nil {
		return fallback
	}
	return v
}
