package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StateBackendDisk     = "disk"
	StateBackendRedis    = "redis"
	StateBackendPostgres = "postgres"
	StateBackendMemory   = "memory"

	DefaultStateKey            = "shapepro_state"
	DefaultGeminiBaseURL       = "https://generativelanguage.googleapis.com/"
	DefaultGeminiModel         = "gemini-2.5-flash"
	DefaultPlanTimeout         = 90 * time.Second
	DefaultPlanRateLimitPerMin = 10
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// AllowedOrigins for browser requests; the local UI dev servers when empty.
	AllowedOrigins []string `toml:"allowed_origins"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// Timezone is used to decide what "today" is for the tracker.
	Timezone string `toml:"timezone"`

	// state persistence
	StateBackend string `toml:"state_backend"`
	StateKey     string `toml:"state_key"`
	StateDir     string `toml:"state_dir"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`

	// plan generation
	GeminiBaseURL       string   `toml:"gemini_base_url"`
	GeminiModel         string   `toml:"gemini_model"`
	PlanTimeout         Duration `toml:"plan_timeout"`
	PlanRateLimitPerMin int      `toml:"plan_rate_limit_per_min"`
}

// Duration lets toml values like "90s" be decoded into a time.Duration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		if t.Development == nil {
			return nil, errors.New("development config missing")
		}
		t.Development.Environment = "development"
		return t.Development, nil
	case "prod", "production":
		if t.Production == nil {
			return nil, errors.New("production config missing")
		}
		t.Production.Environment = "production"
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the toml file at path and returns the section for env, with
// defaults applied.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}
	return fromToml(&t, env)
}

// Parse is Load for config already in memory.
func Parse(env, content string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(content, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(&t, env)
}

func fromToml(t *Toml, env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9500
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "9501"
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.StateBackend == "" {
		c.StateBackend = StateBackendDisk
	}
	if c.StateKey == "" {
		c.StateKey = DefaultStateKey
	}
	if c.StateDir == "" {
		c.StateDir = "./data"
	}
	if c.GeminiBaseURL == "" {
		c.GeminiBaseURL = DefaultGeminiBaseURL
	}
	if c.GeminiModel == "" {
		c.GeminiModel = DefaultGeminiModel
	}
	if c.PlanTimeout.Duration <= 0 {
		c.PlanTimeout.Duration = DefaultPlanTimeout
	}
	if c.PlanRateLimitPerMin <= 0 {
		c.PlanRateLimitPerMin = DefaultPlanRateLimitPerMin
	}
}

func (c *Config) Validate() error {
	switch c.StateBackend {
	case StateBackendDisk, StateBackendMemory:
	case StateBackendRedis:
		if c.RedisHost == "" || c.RedisPort == "" {
			return errors.New("redis state backend needs redis_host and redis_port")
		}
	case StateBackendPostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
			return errors.New("postgres state backend needs postgres_host, postgres_port and postgres_db_name")
		}
	default:
		return fmt.Errorf("unknown state backend: %s", c.StateBackend)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone [%s]: %w", c.Timezone, err)
	}
	return loc, nil
}
