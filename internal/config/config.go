package config

import "time"

// Database drivers understood by the app.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds server configuration values.
type Config struct {
	Addr              string         `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration  `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration  `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string         `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string         `mapstructure:"log_format" yaml:"log_format"` // console or json
	GinMode           string         `mapstructure:"gin_mode" yaml:"gin_mode"`
	Database          DatabaseConfig `mapstructure:"database" yaml:"database"`
	CORSOrigins       []string       `mapstructure:"cors_allowed_origins" yaml:"cors_allowed_origins"`
	WriteRateLimit    int            `mapstructure:"write_rate_limit" yaml:"write_rate_limit"` // POST requests per minute, 0 disables
	MaxBodyBytes      int64          `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	MetricsEnabled    bool           `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`
}

// DatabaseConfig selects and configures the record store backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	Path   string `mapstructure:"path" yaml:"path"` // sqlite
	DSN    string `mapstructure:"dsn" yaml:"dsn"`   // postgres
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		GinMode:           "release",
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   "commlog.db",
		},
		WriteRateLimit: 0,
		MaxBodyBytes:   1 << 20,
		MetricsEnabled: true,
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
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.GinMode != "" {
		c.GinMode = other.GinMode
	}
	if other.Database.Driver != "" {
		c.Database.Driver = other.Database.Driver
	}
	if other.Database.Path != "" {
		c.Database.Path = other.Database.Path
	}
	if other.Database.DSN != "" {
		c.Database.DSN = other.Database.DSN
	}
	if len(other.CORSOrigins) > 0 {
		c.CORSOrigins = other.CORSOrigins
	}
	if other.MaxBodyBytes != 0 {
		c.MaxBodyBytes = other.MaxBodyBytes
	}
	if other.WriteRateLimit != 0 {
		c.WriteRateLimit = other.WriteRateLimit
	}
}
