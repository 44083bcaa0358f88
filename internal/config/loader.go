// Package config loads the captcha server configuration from an optional
// YAML file and validates it.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/thruflo/captcha/internal/logging"
	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultAddress        = "127.0.0.1"
	DefaultPort           = 7070
	DefaultStatFile       = "captcha.stat"
	DefaultLogFile        = "captcha.log"
	DefaultLogLevel       = "warn"
	DefaultBlockTime      = 5 * time.Minute
	DefaultConfigFileName = "captcha.yaml"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address: DefaultAddress,
			Port:    DefaultPort,
		},
		Stats: StatsConfig{
			StatFile: DefaultStatFile,
			LogFile:  DefaultLogFile,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
		RateLimit: RateLimitConfig{
			BlockTime: DefaultBlockTime,
		},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// LoadConfig reads and parses the YAML file at path.
// If the file doesn't exist, returns default config.
// Fields missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateConfig checks that all config values are valid.
func ValidateConfig(cfg *Config) error {
	if cfg.Server.Address == "" {
		return ValidationError{Field: "server.address", Message: "required field is empty"}
	}
	if net.ParseIP(cfg.Server.Address) == nil && cfg.Server.Address != "localhost" {
		return ValidationError{Field: "server.address", Message: "must be an IP address"}
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return ValidationError{Field: "server.port", Message: "must be between 0 and 65535"}
	}
	if cfg.Stats.StatFile == "" {
		return ValidationError{Field: "stats.stat_file", Message: "required field is empty"}
	}
	if cfg.Stats.LogFile == "" {
		return ValidationError{Field: "stats.log_file", Message: "required field is empty"}
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return ValidationError{Field: "logging.level", Message: "must be one of debug, info, warn, error"}
	}
	if cfg.RateLimit.BlockAfter < 0 {
		return ValidationError{Field: "rate_limit.block_after", Message: "must not be negative"}
	}
	if cfg.RateLimit.Enabled() && cfg.RateLimit.BlockTime <= 0 {
		return ValidationError{Field: "rate_limit.block_time", Message: "must be positive"}
	}
	return nil
}

// ListenAddr joins the configured address and port.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.Port))
}
