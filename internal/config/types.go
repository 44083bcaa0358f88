package config

import "time"

// ServerConfig defines where the captcha server listens.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// StatsConfig defines where statistics and failure events are persisted.
type StatsConfig struct {
	StatFile string `yaml:"stat_file"`
	LogFile  string `yaml:"log_file"`
}

// LoggingConfig controls the operator log.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RateLimitConfig controls refusal of hosts that keep failing challenges.
// BlockAfter of zero disables rate limiting.
type RateLimitConfig struct {
	BlockAfter int           `yaml:"block_after"`
	BlockTime  time.Duration `yaml:"block_time"`
}

// Enabled reports whether failing hosts are ever blocked.
func (r RateLimitConfig) Enabled() bool {
	return r.BlockAfter > 0
}

// Config represents the captcha.yaml file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Stats     StatsConfig     `yaml:"stats"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}
