package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Scraper   ScraperConfig
	Browser   BrowserConfig
	Search    SearchConfig
	Cache     CacheConfig
	Store     StoreConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// ScraperConfig controls the standard HTTP fetcher and the overall
// enrichment budget.
type ScraperConfig struct {
	// MaxRetries is the standard-fetch retry count.
	MaxRetries int // default: 3

	// Timeout is the per-attempt timeout.
	Timeout time.Duration // default: 15s

	// TotalTimeout bounds a whole enrichment run; beyond it the partial
	// record is returned with whatever was collected.
	TotalTimeout time.Duration // default: 180s

	// MaxBodyBytes caps the response body read.
	MaxBodyBytes int64 // default: 5 MB

	// ImageProbe enables HEAD validation of untrusted image URLs.
	ImageProbe bool // default: false
}

// BrowserConfig controls the headless-browser fallback.
type BrowserConfig struct {
	// Enabled toggles the browser fallback entirely.
	Enabled bool // default: true

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NavTimeout is the max time for a single navigation.
	NavTimeout time.Duration // default: 30s

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// Bin overrides the Chromium binary path.
	Bin string
}

// SearchConfig controls the web-search title fallback.
type SearchConfig struct {
	// Enabled toggles the search fallback.
	Enabled bool // default: true

	// Timeout is the search request deadline.
	Timeout time.Duration // default: 10s
}

// CacheConfig controls the enrichment result cache.
type CacheConfig struct {
	// TTL is the lifetime of successful enrichment records.
	TTL time.Duration // default: 24h

	// StubTTL is the lifetime of domain-only fallback stubs, kept short so
	// transient DNS or network problems don't poison the cache for a day.
	StubTTL time.Duration // default: 15m
}

// StoreConfig controls item persistence.
type StoreConfig struct {
	// DBPath is the sqlite database file.
	DBPath string // default: "linkhive.db"
}

// AuthConfig controls admin API key authentication.
type AuthConfig struct {
	Enabled bool // default: true
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 5
	Burst             int     // default: 10
}

// WebhookConfig controls enrichment-completed notifications.
type WebhookConfig struct {
	URL    string
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("LINKHIVE_HOST", "0.0.0.0"),
			Port: envIntOr("LINKHIVE_PORT", 8080),
			Mode: envOr("LINKHIVE_MODE", "release"),
		},
		Scraper: ScraperConfig{
			MaxRetries:   envIntOr("SCRAPER_MAX_RETRIES", 3),
			Timeout:      time.Duration(envIntOr("SCRAPER_TIMEOUT_SECONDS", 15)) * time.Second,
			TotalTimeout: envDurationOr("SCRAPER_TOTAL_TIMEOUT", 180*time.Second),
			MaxBodyBytes: int64(envIntOr("SCRAPER_MAX_BODY_BYTES", 5*1024*1024)),
			ImageProbe:   envBoolOr("SCRAPER_IMAGE_PROBE", false),
		},
		Browser: BrowserConfig{
			Enabled:    envBoolOr("SCRAPER_BROWSER_ENABLED", true),
			Headless:   envBoolOr("SCRAPER_BROWSER_HEADLESS", true),
			NavTimeout: time.Duration(envIntOr("SCRAPER_BROWSER_TIMEOUT", 30)) * time.Second,
			NoSandbox:  envBoolOr("SCRAPER_NO_SANDBOX", false),
			Bin:        os.Getenv("SCRAPER_BROWSER_BIN"),
		},
		Search: SearchConfig{
			Enabled: envBoolOr("SCRAPER_SEARCH_ENABLED", true),
			Timeout: envDurationOr("SCRAPER_SEARCH_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			TTL:     time.Duration(envIntOr("SCRAPER_CACHE_TTL", 86400)) * time.Second,
			StubTTL: time.Duration(envIntOr("SCRAPER_STUB_CACHE_TTL", 900)) * time.Second,
		},
		Store: StoreConfig{
			DBPath: envOr("LINKHIVE_DB_PATH", "linkhive.db"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("LINKHIVE_AUTH_ENABLED", true),
			APIKeys: envSliceOr("LINKHIVE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("LINKHIVE_RATE_RPS", 5.0),
			Burst:             envIntOr("LINKHIVE_RATE_BURST", 10),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("LINKHIVE_WEBHOOK_URL"),
			Secret: os.Getenv("LINKHIVE_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("LINKHIVE_LOG_LEVEL", "info"),
			Format: envOr("LINKHIVE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
