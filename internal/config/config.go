package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// AllowedOrigins lists the browser origins allowed to call the API.
	// A single "*" allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	MaxMessageBytes   int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMin   int           `mapstructure:"rate_limit_per_min" yaml:"rate_limit_per_min"`
	ClientBuffer      int           `mapstructure:"client_buffer" yaml:"client_buffer"`
	HistoryLimit      int           `mapstructure:"history_limit" yaml:"history_limit"`
	StoreTimeout      time.Duration `mapstructure:"store_timeout" yaml:"store_timeout"`
	DefaultMaxPlayers int           `mapstructure:"default_max_players" yaml:"default_max_players"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "matchup.db",
		LogLevel:          "info",
		AllowedOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
		MaxMessageBytes:   64 << 10,
		RateLimitPerMin:   120,
		ClientBuffer:      64,
		HistoryLimit:      50,
		StoreTimeout:      5 * time.Second,
		DefaultMaxPlayers: 6,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if len(other.AllowedOrigins) > 0 {
		c.AllowedOrigins = append([]string(nil), other.AllowedOrigins...)
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RateLimitPerMin != 0 {
		c.RateLimitPerMin = other.RateLimitPerMin
	}
	if other.ClientBuffer != 0 {
		c.ClientBuffer = other.ClientBuffer
	}
	if other.HistoryLimit != 0 {
		c.HistoryLimit = other.HistoryLimit
	}
	if other.StoreTimeout != 0 {
		c.StoreTimeout = other.StoreTimeout
	}
	if other.DefaultMaxPlayers != 0 {
		c.DefaultMaxPlayers = other.DefaultMaxPlayers
	}
}
