package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Match    MatchConfig    `yaml:"match"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Activity ActivityConfig `yaml:"activity"`
	Identity IdentityConfig `yaml:"identity"`
	Archive  ArchiveConfig  `yaml:"archive"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// MatchConfig defines defaults and bounds for the geo matching engine.
type MatchConfig struct {
	DefaultRadiusKm      float64        `yaml:"defaultRadiusKm"`
	DefaultProviderLimit int            `yaml:"defaultProviderLimit"`
	DefaultRequestLimit  int            `yaml:"defaultRequestLimit"`
	CacheTTL             time.Duration  `yaml:"cacheTtl"`
	Postgres             PostgresConfig `yaml:"postgres"`
	Valkey               ValkeyConfig   `yaml:"valkey"`
}

// PostgresConfig contains DSN and pooling settings for the geo data source.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ValkeyConfig contains connection information for the candidate cache.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// PipelineConfig locates the external intake analysis pipeline.
type PipelineConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// ActivityConfig sizes the in-memory intake activity log.
type ActivityConfig struct {
	Capacity int `yaml:"capacity"`
}

// IdentityConfig controls bearer resolution and the demo fallback policy.
type IdentityConfig struct {
	JWTSecret        string `yaml:"jwtSecret"`
	AllowDemoPatient bool   `yaml:"allowDemoPatient"`
	DemoPatientID    string `yaml:"demoPatientId"`
}

// ArchiveConfig enables best-effort audio archival to object storage.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = isTruthy(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("MATCH_DEFAULT_RADIUS_KM"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Match.DefaultRadiusKm = parsed
		}
	}
	if v := os.Getenv("MATCH_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Match.CacheTTL = parsed
		}
	}
	if v := os.Getenv("MATCH_POSTGRES_DSN"); v != "" {
		cfg.Match.Postgres.DSN = v
	}
	if v := os.Getenv("MATCH_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Match.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("MATCH_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Match.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("MATCH_VALKEY_ENABLED"); v != "" {
		cfg.Match.Valkey.Enabled = isTruthy(v)
	}
	if v := os.Getenv("MATCH_VALKEY_ADDR"); v != "" {
		cfg.Match.Valkey.Addr = v
	}
	if v := os.Getenv("PIPELINE_BASE_URL"); v != "" {
		cfg.Pipeline.BaseURL = v
	}
	if v := os.Getenv("PIPELINE_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Pipeline.Timeout = parsed
		}
	}
	if v := os.Getenv("ACTIVITY_CAPACITY"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Activity.Capacity = parsed
		}
	}
	if v := os.Getenv("IDENTITY_JWT_SECRET"); v != "" {
		cfg.Identity.JWTSecret = v
	}
	if v := os.Getenv("IDENTITY_ALLOW_DEMO_PATIENT"); v != "" {
		cfg.Identity.AllowDemoPatient = isTruthy(v)
	}
	if v := os.Getenv("IDENTITY_DEMO_PATIENT_ID"); v != "" {
		cfg.Identity.DemoPatientID = v
	}
	if v := os.Getenv("ARCHIVE_ENABLED"); v != "" {
		cfg.Archive.Enabled = isTruthy(v)
	}
	if v := os.Getenv("ARCHIVE_ENDPOINT"); v != "" {
		cfg.Archive.Endpoint = v
	}
	if v := os.Getenv("ARCHIVE_ACCESS_KEY"); v != "" {
		cfg.Archive.AccessKey = v
	}
	if v := os.Getenv("ARCHIVE_SECRET_KEY"); v != "" {
		cfg.Archive.SecretKey = v
	}
	if v := os.Getenv("ARCHIVE_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
	}
	if v := os.Getenv("ARCHIVE_REGION"); v != "" {
		cfg.Archive.Region = v
	}
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if clean := strings.TrimSpace(part); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
		},
		Match: MatchConfig{
			DefaultRadiusKm:      50,
			DefaultProviderLimit: 20,
			DefaultRequestLimit:  50,
			CacheTTL:             30 * time.Second,
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Pipeline: PipelineConfig{
			BaseURL: "http://127.0.0.1:5000",
			Timeout: 30 * time.Second,
		},
		Activity: ActivityConfig{
			Capacity: 200,
		},
		Identity: IdentityConfig{
			AllowDemoPatient: true,
			DemoPatientID:    "patient-demo",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.Match.DefaultRadiusKm <= 0 {
		return errors.New("match.defaultRadiusKm must be positive")
	}
	if c.Match.DefaultProviderLimit <= 0 {
		return errors.New("match.defaultProviderLimit must be positive")
	}
	if c.Match.DefaultRequestLimit <= 0 {
		return errors.New("match.defaultRequestLimit must be positive")
	}
	if c.Match.CacheTTL < 0 {
		return errors.New("match.cacheTtl cannot be negative")
	}
	if c.Match.Valkey.Enabled && strings.TrimSpace(c.Match.Valkey.Addr) == "" {
		return errors.New("match.valkey.addr cannot be empty when the candidate cache is enabled")
	}
	if strings.TrimSpace(c.Pipeline.BaseURL) == "" {
		return errors.New("pipeline.baseUrl cannot be empty")
	}
	if c.Pipeline.Timeout <= 0 {
		return errors.New("pipeline.timeout must be positive")
	}
	if c.Activity.Capacity <= 0 {
		return errors.New("activity.capacity must be positive")
	}
	if c.Identity.AllowDemoPatient && strings.TrimSpace(c.Identity.DemoPatientID) == "" {
		return errors.New("identity.demoPatientId cannot be empty when the demo fallback is enabled")
	}
	if c.Archive.Enabled {
		if strings.TrimSpace(c.Archive.Endpoint) == "" {
			return errors.New("archive.endpoint cannot be empty when archiving is enabled")
		}
		if strings.TrimSpace(c.Archive.Bucket) == "" {
			return errors.New("archive.bucket cannot be empty when archiving is enabled")
		}
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	return nil
}
