// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables named
// <SECTION>_<FIELD>, e.g. SERVER_PORT or UPLOAD_MAX_FILE_SIZE.
type Config struct {
	Server    ServerConfig
	Upload    UploadConfig
	Pipeline  PipelineConfig
	RateLimit RateLimitConfig `split_words:"true"`
	Security  SecurityConfig
	Log       LoggingConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `split_words:"true" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `split_words:"true" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `split_words:"true" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `split_words:"true" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `split_words:"true" default:"60s"`
}

// UploadConfig holds upload and batch admission settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed size of one file in bytes (default: 200MB)
	MaxFileSize int64 `split_words:"true" default:"209715200"`

	// MaxFiles is the maximum number of files accepted in one batch (default: 20)
	MaxFiles int `split_words:"true" default:"20"`

	// MaxConcurrent is the maximum number of batches processed at once (default: 5)
	MaxConcurrent int `split_words:"true" default:"5"`

	// MaxWaitTime is how long a batch waits for a processing slot (default: 30s)
	MaxWaitTime time.Duration `split_words:"true" default:"30s"`

	// Timeout is the maximum duration for processing one batch (default: 2m)
	Timeout time.Duration `default:"2m"`
}

// PipelineConfig holds per-file transformation settings.
type PipelineConfig struct {
	// PreviewRows is how many leading rows are shown per file (default: 5)
	PreviewRows int `split_words:"true" default:"5"`

	// Workers is how many files of one batch are processed in parallel (default: 4)
	Workers int `default:"4"`

	// ChartMaxRows caps the points plotted per series, 0 for no cap (default: 100)
	ChartMaxRows int `split_words:"true" default:"100"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 100)
	RequestsPerMinute int `split_words:"true" default:"100"`

	// Burst is the number of requests allowed above the sustained rate (default: 20)
	Burst int `default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `split_words:"true"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `split_words:"true" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `default:"text"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `default:"true"`
	Path    string `default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
