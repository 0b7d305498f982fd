// Package config provides application configuration loaded from environment
// variables with defaults and validation. Everything the form backend needs
// (signing secret, canonical site URL, runtime mode, rate-limit policy,
// collaborator credentials) is read once at start-up into an immutable Config
// that is injected into each component's constructor.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Runtime modes accepted in APP_ENV.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

// devCSRFSecret is used outside production when CSRF_SECRET is unset.
const devCSRFSecret = "development-csrf-secret-do-not-use-in-production"

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
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
	Environment string  // copied from APP_ENV after normalization
}

// OriginConfig lists who may submit forms.
type OriginConfig struct {
	SiteURL        string   // SITE_URL, canonical public URL of the landing pages
	AllowedOrigins []string // ALLOWED_ORIGINS, extra scheme://host entries
	PreviewHost    string   // PREVIEW_HOST, host of a preview deployment (https only)
}

// RateLimitConfig is the fixed-window policy applied by the edge gate.
type RateLimitConfig struct {
	Backend    string        // memory|redis
	Window     time.Duration // RATE_LIMIT_WINDOW
	APIMax     int           // RATE_LIMIT_API_MAX
	FormMax    int           // RATE_LIMIT_FORM_MAX
	SweepEvery time.Duration // RATE_LIMIT_SWEEP_EVERY (memory backend)
}

// RedisConfig configures the shared rate-limit store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// HubSpotConfig holds Marketing CRM credentials.
type HubSpotConfig struct {
	AccessToken string
	APIURL      string
}

// CustomerIOConfig holds event-tracking credentials.
type CustomerIOConfig struct {
	SiteID   string
	APIKey   string
	TrackURL string
}

// OutboundConfig bounds calls to third-party collaborators.
type OutboundConfig struct {
	Timeout time.Duration // per call
	RPS     float64       // client-side throttle per collaborator
	Burst   int
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Runtime
	Env string // production|development|test

	// Logging / Docs
	LogLevel       string
	LogPretty      bool
	SwaggerEnabled bool

	// Storage
	DBPath string

	// Form protection
	CSRFSecret string
	Origins    OriginConfig
	RateLimit  RateLimitConfig
	Redis      RedisConfig
	Security   SecurityConfig

	// Collaborators
	HubSpot    HubSpotConfig
	CustomerIO CustomerIOConfig
	Outbound   OutboundConfig

	// Observability
	OTEL OTELConfig
}

// IsProduction reports whether the process runs in production mode. It gates
// bot user-agent matching and development origin allowances.
func (c Config) IsProduction() bool { return c.Env == EnvProduction }

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

		Env: strings.ToLower(strings.TrimSpace(getenv("APP_ENV", EnvDevelopment))),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),

		DBPath: getenv("DB_PATH", "submissions.db"),

		CSRFSecret: getenv("CSRF_SECRET", ""),
		Origins: OriginConfig{
			SiteURL:        getenv("SITE_URL", "http://localhost:3000"),
			AllowedOrigins: splitCSV(getenv("ALLOWED_ORIGINS", "")),
			PreviewHost:    strings.TrimSpace(getenv("PREVIEW_HOST", "")),
		},
		RateLimit: RateLimitConfig{
			Backend:    strings.ToLower(getenv("RATE_LIMIT_BACKEND", "memory")),
			Window:     getdur("RATE_LIMIT_WINDOW", time.Minute),
			APIMax:     getint("RATE_LIMIT_API_MAX", 20),
			FormMax:    getint("RATE_LIMIT_FORM_MAX", 5),
			SweepEvery: getdur("RATE_LIMIT_SWEEP_EVERY", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		HubSpot: HubSpotConfig{
			AccessToken: getenv("HUBSPOT_ACCESS_TOKEN", ""),
			APIURL:      strings.TrimRight(getenv("HUBSPOT_API_URL", "https://api.hubapi.com"), "/"),
		},
		CustomerIO: CustomerIOConfig{
			SiteID:   getenv("CUSTOMERIO_SITE_ID", ""),
			APIKey:   getenv("CUSTOMERIO_API_KEY", ""),
			TrackURL: strings.TrimRight(getenv("CUSTOMERIO_TRACK_URL", "https://track.customer.io/api/v1"), "/"),
		},
		Outbound: OutboundConfig{
			Timeout: getdur("OUTBOUND_TIMEOUT", 5*time.Second),
			RPS:     getfloat("OUTBOUND_RPS", 10),
			Burst:   getint("OUTBOUND_BURST", 10),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "landing-pages-forms"),
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
	if cfg.Env == "prod" {
		cfg.Env = EnvProduction
	}
	cfg.OTEL.Environment = cfg.Env
	if cfg.CSRFSecret == "" && cfg.Env != EnvProduction {
		cfg.CSRFSecret = devCSRFSecret
	}

	// --- validation ---
	switch cfg.Env {
	case EnvProduction, EnvDevelopment, EnvTest:
	default:
		return cfg, errors.New("APP_ENV must be one of: production, development, test")
	}
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
	if cfg.CSRFSecret == "" {
		return cfg, errors.New("CSRF_SECRET is required in production")
	}
	if cfg.RateLimit.Window <= 0 {
		return cfg, errors.New("RATE_LIMIT_WINDOW must be > 0")
	}
	if cfg.RateLimit.APIMax < 1 || cfg.RateLimit.FormMax < 1 {
		return cfg, errors.New("RATE_LIMIT_API_MAX and RATE_LIMIT_FORM_MAX must be >= 1")
	}
	switch cfg.RateLimit.Backend {
	case "memory", "redis":
	default:
		return cfg, errors.New("RATE_LIMIT_BACKEND must be one of: memory, redis")
	}
	if cfg.RateLimit.Backend == "redis" && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return cfg, errors.New("REDIS_ADDR must not be empty when RATE_LIMIT_BACKEND=redis")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.Outbound.Timeout <= 0 {
		return cfg, errors.New("OUTBOUND_TIMEOUT must be > 0")
	}
	if cfg.Outbound.RPS <= 0 || cfg.Outbound.Burst < 1 {
		return cfg, errors.New("OUTBOUND_RPS must be > 0 and OUTBOUND_BURST >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
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
