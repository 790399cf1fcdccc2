package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const defaultScanTimeoutMS = 60000

// Config holds all configurable server and game parameters.
type Config struct {
	HTTPPort int `json:"http_port"`

	// Grid shape offered to a new session and the bounds a user may pick from.
	DefaultRows int  `json:"default_rows"`
	DefaultCols int  `json:"default_cols"`
	MinGridSize int  `json:"min_grid_size"`
	MaxGridSize int  `json:"max_grid_size"`
	CenterFree  bool `json:"center_free"`

	RecentCallsLimit int `json:"recent_calls_limit"`
	MaxTitleLength   int `json:"max_title_length"`

	// MaxImageBytes bounds scan uploads, both over HTTP and WebSocket.
	MaxImageBytes int `json:"max_image_bytes"`
	ScanTimeoutMS int `json:"scan_timeout_ms"`

	// Scan backends. ScanServiceURL wins over GeminiAPIKey; with neither set
	// the mock scanner is used.
	GeminiAPIKey    string `json:"-"`
	GeminiModel     string `json:"gemini_model"`
	ScanServiceURL  string `json:"scan_service_url"`
	DebugAIResponse bool   `json:"debug_ai_response"`

	RedisURL        string `json:"redis_url"`
	ScanCacheTTLSec int    `json:"scan_cache_ttl_sec"`

	DatabaseURL     string `json:"-"`
	AuthJWKSBaseURL string `json:"auth_jwks_base_url"`

	PublicURL     string `json:"public_url"`
	AllowedOrigin string `json:"allowed_origin"`
	LogLevel      string `json:"log_level"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		HTTPPort:         3001,
		DefaultRows:      5,
		DefaultCols:      5,
		MinGridSize:      2,
		MaxGridSize:      10,
		CenterFree:       true,
		RecentCallsLimit: 5,
		MaxTitleLength:   40,
		MaxImageBytes:    10 << 20,
		ScanTimeoutMS:    defaultScanTimeoutMS,
		GeminiModel:      "gemini-2.5-flash",
		ScanCacheTTLSec:  86400,
		AllowedOrigin:    "*",
		LogLevel:         "info",
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config.json", "tag", "config", "err", err)
		}
	}

	overrideInt(&cfg.HTTPPort, "PORT")
	overrideInt(&cfg.DefaultRows, "DEFAULT_ROWS")
	overrideInt(&cfg.DefaultCols, "DEFAULT_COLS")
	overrideInt(&cfg.MinGridSize, "MIN_GRID_SIZE")
	overrideInt(&cfg.MaxGridSize, "MAX_GRID_SIZE")
	overrideBool(&cfg.CenterFree, "CENTER_FREE")
	overrideInt(&cfg.RecentCallsLimit, "RECENT_CALLS_LIMIT")
	overrideInt(&cfg.MaxTitleLength, "MAX_TITLE_LENGTH")
	overrideInt(&cfg.MaxImageBytes, "MAX_IMAGE_BYTES")
	overrideInt(&cfg.ScanTimeoutMS, "SCAN_TIMEOUT_MS")
	overrideString(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	overrideString(&cfg.GeminiModel, "GEMINI_MODEL")
	overrideString(&cfg.ScanServiceURL, "SCAN_SERVICE_URL")
	overrideBool(&cfg.DebugAIResponse, "DEBUG_AI_RESPONSE")
	overrideString(&cfg.RedisURL, "REDIS_URL")
	overrideInt(&cfg.ScanCacheTTLSec, "SCAN_CACHE_TTL_SEC")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.AuthJWKSBaseURL, "AUTH_JWKS_BASE_URL")
	overrideString(&cfg.PublicURL, "PUBLIC_URL")
	overrideString(&cfg.AllowedOrigin, "ALLOWED_ORIGIN")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")

	cfg.clamp()
	return cfg
}

// clamp keeps the grid bounds usable even when config.json or the
// environment contradict each other.
func (c *Config) clamp() {
	if c.MinGridSize < 1 {
		c.MinGridSize = 1
	}
	if c.MaxGridSize < c.MinGridSize {
		c.MaxGridSize = c.MinGridSize
	}
	c.DefaultRows = clampInt(c.DefaultRows, c.MinGridSize, c.MaxGridSize)
	c.DefaultCols = clampInt(c.DefaultCols, c.MinGridSize, c.MaxGridSize)
	if c.RecentCallsLimit < 0 {
		c.RecentCallsLimit = 0
	}
	if c.ScanTimeoutMS <= 0 {
		c.ScanTimeoutMS = defaultScanTimeoutMS
	}
}

// ScanTimeout is how long one scan may take. Non-positive settings fall
// back to the default.
func (c *Config) ScanTimeout() time.Duration {
	if c.ScanTimeoutMS <= 0 {
		return defaultScanTimeoutMS * time.Millisecond
	}
	return time.Duration(c.ScanTimeoutMS) * time.Millisecond
}

// LogLevelValue maps LogLevel to a slog level; unknown values mean info.
func (c *Config) LogLevelValue() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			slog.Warn("invalid integer in environment", "tag", "config", "key", envKey, "value", val)
		}
	}
}

func overrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*field = b
		} else {
			slog.Warn("invalid boolean in environment", "tag", "config", "key", envKey, "value", val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
