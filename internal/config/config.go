// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, the content backend, search tuning, scheduled rebuilds, rate
// limiting and observability.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Content backends.
const (
	BackendMarkdown = "markdown"
	BackendSQLite   = "sqlite"
	BackendRemote   = "remote"
)

// Search matchers.
const (
	SearchFuzzy = "fuzzy"
	SearchBleve = "bleve"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-portfolio-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ContentConfig selects and configures the content source.
type ContentConfig struct {
	Backend    string        // CONTENT_BACKEND: markdown|sqlite|remote
	Dir        string        // CONTENT_DIR for the markdown backend
	DBPath     string        // DB_PATH for the sqlite backend
	APIURL     string        // CONTENT_API_URL for the remote backend
	APIToken   string        // CONTENT_API_TOKEN (optional bearer token)
	APITimeout time.Duration // CONTENT_API_TIMEOUT
}

// SearchConfig defines artifact locations and matcher tuning.
type SearchConfig struct {
	IndexPath     string        // SEARCH_INDEX_PATH, where the builder writes the artifact
	IndexURL      string        // SEARCH_INDEX_URL, where the engine fetches it (file when empty)
	IndexMaxAge   time.Duration // SEARCH_INDEX_MAX_AGE, Cache-Control max-age of the artifact
	Backend       string        // SEARCH_BACKEND: fuzzy|bleve
	Threshold     float64       // SEARCH_THRESHOLD in [0,1]
	WeightTitle   float64
	WeightSummary float64
	WeightTags    float64
	WeightContent float64
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	Content ContentConfig
	Search  SearchConfig

	// Rebuilds
	RebuildSchedule    string // INDEX_REBUILD_SCHEDULE, cron spec; empty disables
	RevalidationSecret string // REVALIDATION_SECRET; empty disables the webhook

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		Content: ContentConfig{
			Backend:    strings.ToLower(getenv("CONTENT_BACKEND", BackendMarkdown)),
			Dir:        getenv("CONTENT_DIR", "content"),
			DBPath:     getenv("DB_PATH", "content.db"),
			APIURL:     getenv("CONTENT_API_URL", ""),
			APIToken:   getenv("CONTENT_API_TOKEN", ""),
			APITimeout: getdur("CONTENT_API_TIMEOUT", 10*time.Second),
		},

		Search: SearchConfig{
			IndexPath:     getenv("SEARCH_INDEX_PATH", "public/search-index.json"),
			IndexURL:      getenv("SEARCH_INDEX_URL", ""),
			IndexMaxAge:   getdur("SEARCH_INDEX_MAX_AGE", time.Hour),
			Backend:       strings.ToLower(getenv("SEARCH_BACKEND", SearchFuzzy)),
			Threshold:     getfloat("SEARCH_THRESHOLD", 0.3),
			WeightTitle:   getfloat("SEARCH_WEIGHT_TITLE", 0.4),
			WeightSummary: getfloat("SEARCH_WEIGHT_SUMMARY", 0.3),
			WeightTags:    getfloat("SEARCH_WEIGHT_TAGS", 0.2),
			WeightContent: getfloat("SEARCH_WEIGHT_CONTENT", 0.1),
		},

		RebuildSchedule:    strings.TrimSpace(getenv("INDEX_REBUILD_SCHEDULE", "")),
		RevalidationSecret: getenv("REVALIDATION_SECRET", ""),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-portfolio-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	cfg.Content.APIURL = strings.TrimRight(strings.TrimSpace(cfg.Content.APIURL), "/")

	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints. Load calls it; callers that
// override fields afterwards (e.g. from CLI flags) should call it again.
func (cfg Config) Validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}

	switch cfg.Content.Backend {
	case BackendMarkdown:
		if strings.TrimSpace(cfg.Content.Dir) == "" {
			return errors.New("CONTENT_DIR must not be empty")
		}
	case BackendSQLite:
		if strings.TrimSpace(cfg.Content.DBPath) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case BackendRemote:
		if cfg.Content.APIURL == "" {
			return errors.New("CONTENT_API_URL is required when CONTENT_BACKEND=remote")
		}
	default:
		return fmt.Errorf("CONTENT_BACKEND must be one of: %s, %s, %s", BackendMarkdown, BackendSQLite, BackendRemote)
	}
	if cfg.Content.APITimeout <= 0 {
		return errors.New("CONTENT_API_TIMEOUT must be > 0")
	}

	if strings.TrimSpace(cfg.Search.IndexPath) == "" {
		return errors.New("SEARCH_INDEX_PATH must not be empty")
	}
	if cfg.Search.IndexMaxAge < 0 {
		return errors.New("SEARCH_INDEX_MAX_AGE must be >= 0")
	}
	switch cfg.Search.Backend {
	case SearchFuzzy, SearchBleve:
	default:
		return fmt.Errorf("SEARCH_BACKEND must be one of: %s, %s", SearchFuzzy, SearchBleve)
	}
	if cfg.Search.Threshold < 0 || cfg.Search.Threshold > 1 {
		return errors.New("SEARCH_THRESHOLD must be between 0 and 1")
	}
	s := cfg.Search
	if s.WeightTitle < 0 || s.WeightSummary < 0 || s.WeightTags < 0 || s.WeightContent < 0 {
		return errors.New("SEARCH_WEIGHT_* must be >= 0")
	}
	if sum := s.WeightTitle + s.WeightSummary + s.WeightTags + s.WeightContent; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("SEARCH_WEIGHT_* must sum to 1, got %g", sum)
	}

	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
