package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the environment variable pointing at an optional TOML file.
const FileEnv = "CONFIG_FILE"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Terminal  TerminalConfig  `toml:"terminal"`
	Logging   LogConfig       `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	CORS      CORSConfig      `toml:"cors"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string   `envconfig:"PORT" toml:"port"`
	Host            string   `envconfig:"HOST" toml:"host"`
	ShutdownTimeout Duration `envconfig:"SHUTDOWN_TIMEOUT" toml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// TerminalConfig holds command session configuration.
type TerminalConfig struct {
	Shell           string   `envconfig:"TERMINAL_SHELL" toml:"shell"`
	DefaultDir      string   `envconfig:"TERMINAL_DEFAULT_DIR" toml:"default_dir"`
	PreemptTimeout  Duration `envconfig:"TERMINAL_PREEMPT_TIMEOUT" toml:"preempt_timeout"`
	MaxMessageBytes int64    `envconfig:"TERMINAL_MAX_MESSAGE_BYTES" toml:"max_message_bytes"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" toml:"enabled"`
}

// CORSConfig holds allowed origins for HTTP and WebSocket requests.
type CORSConfig struct {
	AllowOrigins []string `envconfig:"CORS_ORIGINS" toml:"allow_origins"`
}

// AllowAll reports whether any origin is accepted.
func (c CORSConfig) AllowAll() bool {
	for _, o := range c.AllowOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Duration is a time.Duration read from strings like "5s" in files and
// environment variables.
type Duration struct {
	time.Duration
}

// NewDuration wraps d
func NewDuration(d time.Duration) Duration {
	return Duration{Duration: d}
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Load builds the configuration from defaults, the file named by
// CONFIG_FILE, and environment variables, in that order.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv(FileEnv))
}

// LoadFrom is Load with an explicit file path. An empty path skips the file.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
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

// ApplyFile overlays the values present in a TOML file. Unknown keys are
// rejected.
func (c *Config) ApplyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config file %s: %s", path, strict.String())
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

// Validate reports settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port must not be empty")
	}
	if c.Terminal.PreemptTimeout.Duration <= 0 {
		return fmt.Errorf("terminal preempt timeout must be positive, got %s", c.Terminal.PreemptTimeout)
	}
	if c.Terminal.DefaultDir != "" && !filepath.IsAbs(c.Terminal.DefaultDir) {
		return fmt.Errorf("terminal default dir must be absolute, got %q", c.Terminal.DefaultDir)
	}
	if c.Terminal.MaxMessageBytes <= 0 {
		return fmt.Errorf("terminal max message bytes must be positive, got %d", c.Terminal.MaxMessageBytes)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate limit must be positive when enabled, got %d", c.RateLimit.RequestsPerSecond)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: NewDuration(10 * time.Second),
		},
		Terminal: TerminalConfig{
			Shell:           "/bin/sh",
			DefaultDir:      "",
			PreemptTimeout:  NewDuration(5 * time.Second),
			MaxMessageBytes: 16 * 1024,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
	}
}
