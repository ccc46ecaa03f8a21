package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ligustah/getter/internal/progress"
)

// Config defines configuration for the getter CLI.
type Config struct {
	URL                    string        `yaml:"url"`
	Output                 string        `yaml:"output"`
	Bucket                 string        `yaml:"bucket"`
	Object                 string        `yaml:"object"`
	Workers                int           `yaml:"workers"`
	Port                   int           `yaml:"port"`
	DialTimeout            time.Duration `yaml:"dial_timeout"`
	IOTimeout              time.Duration `yaml:"io_timeout"`
	BufferSize             int64         `yaml:"buffer_size"`
	LegacyHeaders          bool          `yaml:"legacy_headers"`
	Progress               bool          `yaml:"progress"`
	MaxConsecutiveFailures int           `yaml:"max_consecutive_failures"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Workers:                4,
		Port:                   80,
		DialTimeout:            10 * time.Second,
		BufferSize:             64 * 1024,
		MaxConsecutiveFailures: 3,
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	URL                    string `yaml:"url"`
	Output                 string `yaml:"output"`
	Bucket                 string `yaml:"bucket"`
	Object                 string `yaml:"object"`
	Workers                int    `yaml:"workers"`
	Port                   int    `yaml:"port"`
	DialTimeout            string `yaml:"dial_timeout"`
	IOTimeout              string `yaml:"io_timeout"`
	BufferSize             string `yaml:"buffer_size"`
	LegacyHeaders          bool   `yaml:"legacy_headers"`
	Progress               bool   `yaml:"progress"`
	MaxConsecutiveFailures int    `yaml:"max_consecutive_failures"`
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	cfg.URL = yc.URL
	cfg.Output = yc.Output
	cfg.Bucket = yc.Bucket
	cfg.Object = yc.Object
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if yc.Port != 0 {
		cfg.Port = yc.Port
	}
	if yc.DialTimeout != "" {
		d, err := time.ParseDuration(yc.DialTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse dial_timeout: %w", err)
		}
		cfg.DialTimeout = d
	}
	if yc.IOTimeout != "" {
		d, err := time.ParseDuration(yc.IOTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse io_timeout: %w", err)
		}
		cfg.IOTimeout = d
	}
	if yc.BufferSize != "" {
		size, err := progress.ParseBytes(yc.BufferSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse buffer_size: %w", err)
		}
		cfg.BufferSize = size
	}
	cfg.LegacyHeaders = yc.LegacyHeaders
	cfg.Progress = yc.Progress
	if yc.MaxConsecutiveFailures != 0 {
		cfg.MaxConsecutiveFailures = yc.MaxConsecutiveFailures
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from the given files (".env" when none is
// named) into the process environment. Variables that are already set keep
// their values. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the GETTER_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("GETTER_URL"); v != "" {
		c.URL = v
	}
	if v := os.Getenv("GETTER_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("GETTER_BUCKET"); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv("GETTER_OBJECT"); v != "" {
		c.Object = v
	}
	if v := os.Getenv("GETTER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse GETTER_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("GETTER_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse GETTER_PORT: %w", err)
		}
		c.Port = n
	}
	if v := os.Getenv("GETTER_DIAL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse GETTER_DIAL_TIMEOUT: %w", err)
		}
		c.DialTimeout = d
	}
	if v := os.Getenv("GETTER_IO_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse GETTER_IO_TIMEOUT: %w", err)
		}
		c.IOTimeout = d
	}
	if v := os.Getenv("GETTER_BUFFER_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse GETTER_BUFFER_SIZE: %w", err)
		}
		c.BufferSize = size
	}
	if v := os.Getenv("GETTER_LEGACY_HEADERS"); v != "" {
		c.LegacyHeaders = v == "true" || v == "1"
	}
	if v := os.Getenv("GETTER_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("GETTER_MAX_CONSECUTIVE_FAILURES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse GETTER_MAX_CONSECUTIVE_FAILURES: %w", err)
		}
		c.MaxConsecutiveFailures = n
	}

	return nil
}

// Validate validates the configuration for a download.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("config: URL is required")
	}
	if c.Output == "" && c.Bucket == "" {
		return errors.New("config: output or bucket is required")
	}
	if c.Output != "" && c.Bucket != "" {
		return errors.New("config: output and bucket are mutually exclusive")
	}
	if c.Bucket != "" && c.Object == "" {
		return errors.New("config: object is required with bucket")
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("config: port must be between 1 and 65535")
	}
	if c.BufferSize < 0 {
		return errors.New("config: buffer_size must not be negative")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.URL != "" {
		c.URL = override.URL
	}
	if override.Output != "" {
		c.Output = override.Output
	}
	if override.Bucket != "" {
		c.Bucket = override.Bucket
	}
	if override.Object != "" {
		c.Object = override.Object
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.Port != 0 {
		c.Port = override.Port
	}
	if override.DialTimeout != 0 {
		c.DialTimeout = override.DialTimeout
	}
	if override.IOTimeout != 0 {
		c.IOTimeout = override.IOTimeout
	}
	if override.BufferSize != 0 {
		c.BufferSize = override.BufferSize
	}
	if override.LegacyHeaders {
		c.LegacyHeaders = true
	}
	if override.Progress {
		c.Progress = true
	}
	if override.MaxConsecutiveFailures != 0 {
		c.MaxConsecutiveFailures = override.MaxConsecutiveFailures
	}
	return c
}
