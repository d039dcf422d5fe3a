// Package config provides centralized configuration management for the service.
//
// Values are resolved in three layers, each overriding the previous one:
//
//  1. Defaults from the `default` struct tags below
//  2. An optional YAML file named by HOSPITAL_CONFIG_FILE
//  3. Environment variables named by the `env` (or `envAlt`) tags
//
// The result is validated on startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// FileEnvVar names the environment variable holding the YAML override path.
const FileEnvVar = "HOSPITAL_CONFIG_FILE"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Upload   UploadConfig   `yaml:"upload"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `yaml:"host" env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 5000)
	Port int `yaml:"port" env:"SERVER_PORT" default:"5000"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 30s)
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds record store settings.
type DatabaseConfig struct {
	// Driver selects the store implementation: sqlite or postgres (default: sqlite)
	Driver string `yaml:"driver" env:"DB_DRIVER" default:"sqlite"`

	// URL is the SQLite file path or PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	URL string `yaml:"url" env:"DATABASE_URL" envAlt:"DB_URL" default:"hospitals.db" required:"true"`

	// MaxConns is the maximum number of open connections (default: 10)
	MaxConns int `yaml:"max_conns" env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of idle connections kept open (default: 1)
	MinConns int `yaml:"min_conns" env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// BusyTimeout is how long a SQLite writer waits on a locked file (default: 5s)
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"DB_BUSY_TIMEOUT" default:"5s"`
}

// UploadConfig holds bulk upload settings.
type UploadConfig struct {
	// MaxBodyBytes caps the size of a POST /hospitals body (default: 10MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"UPLOAD_MAX_BODY_BYTES" default:"10485760"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `yaml:"enable_csp" env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `yaml:"format" env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" default:"true"`
	Path    string `yaml:"path" env:"METRICS_PATH" default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
