package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	API        APIConfig        `yaml:"api" toml:"api"`
	Dictionary DictionaryConfig `yaml:"dictionary" toml:"dictionary"`
	Find       FindConfig       `yaml:"find" toml:"find"`
	Logging    LogConfig        `yaml:"logging" toml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" toml:"rate_limit"`
	Retry      RetryConfig      `yaml:"retry" toml:"retry"`
	Metrics    MetricsConfig    `yaml:"metrics" toml:"metrics"`
}

// APIConfig holds REST API access configuration.
type APIConfig struct {
	Base      string   `envconfig:"API_BASE" yaml:"base" toml:"base"`
	Token     string   `envconfig:"API_TOKEN" yaml:"token" toml:"token"`
	Timeout   Duration `envconfig:"API_TIMEOUT" yaml:"timeout" toml:"timeout"`
	Debounce  Duration `envconfig:"API_DEBOUNCE" yaml:"debounce" toml:"debounce"`
	UserAgent string   `envconfig:"API_USER_AGENT" yaml:"user_agent" toml:"user_agent"`
	Breaker   bool     `envconfig:"API_BREAKER" yaml:"breaker" toml:"breaker"`
}

// DictionaryConfig holds the word lookup service configuration.
type DictionaryConfig struct {
	Base string `envconfig:"DICTIONARY_BASE" yaml:"base" toml:"base"`
	Key  string `envconfig:"DICTIONARY_KEY" yaml:"key" toml:"key"`
}

// FindConfig holds navigation coordinator tuning.
type FindConfig struct {
	AllIconsGrace Duration `envconfig:"ALL_ICONS_GRACE" yaml:"all_icons_grace" toml:"all_icons_grace"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
}

// RateLimitConfig holds client-side request rate limiting. Zero RPS means unlimited.
type RateLimitConfig struct {
	RequestsPerSecond float64 `envconfig:"RATE_LIMIT_RPS" yaml:"rps" toml:"rps"`
	Burst             int     `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
}

// RetryConfig holds transport retry configuration. The client does not retry
// unless Max is raised above zero.
type RetryConfig struct {
	Max     int      `envconfig:"RETRY_MAX" yaml:"max" toml:"max"`
	WaitMin Duration `envconfig:"RETRY_WAIT_MIN" yaml:"wait_min" toml:"wait_min"`
	WaitMax Duration `envconfig:"RETRY_WAIT_MAX" yaml:"wait_max" toml:"wait_max"`
}

// MetricsConfig holds the Prometheus endpoint configuration. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `envconfig:"METRICS_ADDR" yaml:"addr" toml:"addr"`
}

// Duration is a time.Duration that decodes from Go duration strings in
// environment variables, YAML and TOML alike.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Load loads configuration from environment variables on top of defaults.
func Load() (*Config, error) {
	cfg := Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads defaults, overlays the given YAML or TOML file, then applies
// environment variables. Environment always wins over the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse toml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Base:      "http://localhost:8000/api",
			Debounce:  Duration(250 * time.Millisecond),
			UserAgent: "iconfind/1.0",
			Breaker:   true,
		},
		Dictionary: DictionaryConfig{
			Base: "https://www.dictionaryapi.com/api/v3/references/collegiate/json",
		},
		Find: FindConfig{
			AllIconsGrace: Duration(100 * time.Millisecond),
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Retry: RetryConfig{
			WaitMin: Duration(time.Second),
			WaitMax: Duration(30 * time.Second),
		},
	}
}

// applyEnv overrides only the fields whose environment variables are set.
func applyEnv(cfg *Config) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}
