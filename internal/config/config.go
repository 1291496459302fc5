// Package config loads server configuration from environment variables with
// defaults and validates it on startup so misconfiguration fails fast.
package config

import (
	"net"
	"strconv"
	"time"

	"github.com/JonMunkholm/tabprep/internal/table"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	S3       S3Config
	Upload   UploadConfig
	Dataset  DatasetConfig
	Clean    CleanConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds PostgreSQL settings. Persistence is disabled when
// URL is empty.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (optional)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool { return c.URL != "" }

// S3Config holds object storage settings for s3:// dataset locations.
type S3Config struct {
	// Enabled turns on s3:// sources and outputs (default: false)
	Enabled bool `env:"S3_ENABLED" default:"false"`

	// Region is the AWS region (default: us-east-1)
	Region string `env:"S3_REGION" envAlt:"AWS_REGION" default:"us-east-1"`

	// Endpoint overrides the S3 endpoint for MinIO and similar services
	Endpoint string `env:"S3_ENDPOINT"`

	// AccessKeyID and SecretAccessKey are optional static credentials.
	// Without them the default AWS credential chain is used.
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`

	// UsePathStyle selects path-style addressing (default: false)
	UsePathStyle bool `env:"S3_USE_PATH_STYLE" default:"false"`
}

// UploadConfig holds file upload and processing settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of parallel uploads and
	// pipeline runs (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for a processing slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for a single upload or pipeline run (default: 10m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"10m"`
}

// DatasetConfig holds settings for the in-memory dataset registry.
type DatasetConfig struct {
	// MaxCount is the number of datasets kept in memory (default: 100)
	MaxCount int `env:"DATASET_MAX_COUNT" default:"100"`

	// PreviewRows is the number of rows shown in previews (default: 50)
	PreviewRows int `env:"DATASET_PREVIEW_ROWS" default:"50"`
}

// CleanConfig holds the defaults applied by the clean operation when a
// request does not set them.
type CleanConfig struct {
	// Sentinel is the placeholder replaced by null (default: -999).
	// Numbers become numeric sentinels, anything else matches text.
	Sentinel string `env:"CLEAN_SENTINEL" default:"-999"`

	// MatchText also nulls text cells spelled like a numeric sentinel (default: false)
	MatchText bool `env:"CLEAN_MATCH_TEXT" default:"false"`

	// RemoveDuplicates drops duplicate rows before replacing (default: true)
	RemoveDuplicates bool `env:"CLEAN_REMOVE_DUPLICATES" default:"true"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enforces X-API-Key on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SentinelValue reads Sentinel the way a loader reads a cell.
func (c CleanConfig) SentinelValue() table.Value {
	return table.Literal(c.Sentinel)
}
