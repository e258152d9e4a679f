// Package config provides application configuration loaded from environment
// variables with defaults and validation. It covers the HTTP server, logging,
// the pass ledger database, the upstream pass API and the submission retry policy.
package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "passbatch")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// PassAPIConfig describes the upstream batch pass-creation endpoint.
type PassAPIConfig struct {
	BaseURL string        // PASS_API_BASE_URL
	Token   string        // PASS_API_TOKEN (Bearer)
	Timeout time.Duration // PASS_API_TIMEOUT
	RPS     float64       // PASS_API_RPS, 0 disables pacing
	Burst   int           // PASS_API_BURST
}

// RetryConfig is the backoff policy applied to a whole batch submission.
type RetryConfig struct {
	MaxRetries int           // RETRY_MAX_RETRIES
	BaseDelay  time.Duration // RETRY_BASE_DELAY
	MaxDelay   time.Duration // RETRY_MAX_DELAY
}

// BatchConfig bounds the in-memory batch sessions.
type BatchConfig struct {
	MaxRecords int           // BATCH_MAX_RECORDS
	SessionTTL time.Duration // BATCH_SESSION_TTL, idle sessions are evicted after this
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

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath string // SQLite path for the pass ledger

	PassAPI PassAPIConfig
	Retry   RetryConfig
	Batch   BatchConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

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

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "passes.db"),

		PassAPI: PassAPIConfig{
			BaseURL: strings.TrimRight(strings.TrimSpace(getenv("PASS_API_BASE_URL", "")), "/"),
			Token:   getenv("PASS_API_TOKEN", ""),
			Timeout: getdur("PASS_API_TIMEOUT", 30*time.Second),
			RPS:     getfloat("PASS_API_RPS", 0),
			Burst:   getint("PASS_API_BURST", 1),
		},
		Retry: RetryConfig{
			MaxRetries: getint("RETRY_MAX_RETRIES", 3),
			BaseDelay:  getdur("RETRY_BASE_DELAY", time.Second),
			MaxDelay:   getdur("RETRY_MAX_DELAY", 30*time.Second),
		},
		Batch: BatchConfig{
			MaxRecords: getint("BATCH_MAX_RECORDS", 100),
			SessionTTL: getdur("BATCH_SESSION_TTL", 2*time.Hour),
		},

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

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "passbatch"),
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

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if err := validatePassAPI(cfg.PassAPI); err != nil {
		return cfg, err
	}
	if cfg.Retry.MaxRetries < 0 || cfg.Retry.MaxRetries > 10 {
		return cfg, errors.New("RETRY_MAX_RETRIES must be between 0 and 10")
	}
	if cfg.Retry.BaseDelay <= 0 {
		return cfg, errors.New("RETRY_BASE_DELAY must be > 0")
	}
	if cfg.Retry.MaxDelay < cfg.Retry.BaseDelay {
		return cfg, errors.New("RETRY_MAX_DELAY must be >= RETRY_BASE_DELAY")
	}
	if cfg.Batch.MaxRecords < 1 {
		return cfg, errors.New("BATCH_MAX_RECORDS must be >= 1")
	}
	if cfg.Batch.SessionTTL <= 0 {
		return cfg, errors.New("BATCH_SESSION_TTL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return cfg, nil
}

func validatePassAPI(p PassAPIConfig) error {
	if p.BaseURL == "" {
		return errors.New("PASS_API_BASE_URL must not be empty")
	}
	u, err := url.Parse(p.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("PASS_API_BASE_URL must be an absolute http(s) URL")
	}
	if p.Timeout <= 0 {
		return errors.New("PASS_API_TIMEOUT must be > 0")
	}
	if p.RPS < 0 {
		return errors.New("PASS_API_RPS must be >= 0")
	}
	if p.Burst < 1 {
		return errors.New("PASS_API_BURST must be >= 1")
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
