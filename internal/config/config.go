package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "panopticlick"

	// DefaultBatchSize is the number of payload files valued concurrently.
	// Valuation is CPU-bound and cheap, so this mostly bounds open files.
	DefaultBatchSize = 10

	// DefaultListenAddress is the address the API server binds to.
	DefaultListenAddress = ":8080"

	// DefaultMaxBodySize limits a single submission to 1MB. Real payloads are
	// a few kilobytes; font and plugin lists are the only unbounded parts.
	DefaultMaxBodySize = 1 << 20

	// DefaultReadHeaderTimeout guards the server against slow-header clients.
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultRequestTimeout bounds the handling of one API request.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultMaxConnections caps concurrently accepted API connections.
	DefaultMaxConnections = 256
)

// Config holds all configuration options for Panopticlick.
// It is populated from CLI flags and passed through the application
// rather than kept in global state.
type Config struct {
	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of concurrent valuations when processing
	// multiple payload files.
	BatchSize int

	// ConfigFilePath is the path to the methodology override file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// Methodology holds the overrides loaded from the config file, if any.
	Methodology *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output with tables, alerts and
	// an entropy pie chart. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Inputs is the list of payload files to value. "-" reads stdin.
	Inputs []string

	// VerifyHash rejects payloads whose meta.hash does not match the
	// recomputed payload digest.
	VerifyHash bool

	// DBDir is the directory path for the SQLite report history.
	// Defaults to XDG data directory (~/.local/share/panopticlick on Linux).
	DBDir string

	// SaveToDB indicates whether reports are stored for later comparison.
	SaveToDB bool

	// ListenAddress is the host:port the API server binds to.
	ListenAddress string

	// MaxBodySize is the largest accepted API request body in bytes.
	MaxBodySize int64

	// ReadHeaderTimeout is the server's limit for reading request headers.
	ReadHeaderTimeout time.Duration

	// RequestTimeout bounds the handling of one API request.
	RequestTimeout time.Duration

	// MaxConnections caps concurrently accepted connections. Zero disables the cap.
	MaxConnections int

	// Metrics enables the Prometheus endpoint of the API server.
	Metrics bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BatchSize:         DefaultBatchSize,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
		ListenAddress:     DefaultListenAddress,
		MaxBodySize:       DefaultMaxBodySize,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		RequestTimeout:    DefaultRequestTimeout,
		MaxConnections:    DefaultMaxConnections,
		Metrics:           true,
	}
}

// XDGDataDir returns the XDG data directory for Panopticlick.
// On Linux: ~/.local/share/panopticlick
// On macOS: ~/Library/Application Support/panopticlick
// On Windows: %LOCALAPPDATA%\panopticlick
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for Panopticlick.
// On Linux: ~/.config/panopticlick
// On macOS: ~/Library/Application Support/panopticlick
// On Windows: %APPDATA%\panopticlick
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the options shared by every command and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// ValidateValuation checks the options used by the value command.
func (c *Config) ValidateValuation() error {
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}
	return c.Validate()
}

// ValidateServer checks the options used by the serve command.
func (c *Config) ValidateServer() error {
	if c.ListenAddress == "" {
		return ErrInvalidListenAddress
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.ReadHeaderTimeout <= 0 || c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxConnections < 0 {
		return ErrInvalidMaxConnections
	}
	return c.Validate()
}
