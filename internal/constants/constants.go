// Package constants provides shared configuration values used across the
// loglens application.
package constants

import "time"

// Configuration file defaults
const (
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "loglens.yaml"

	// DefaultAdbPath is the adb executable used when the config does not
	// name one (resolved through PATH)
	DefaultAdbPath = "adb"

	// PresetFileName is the filename for persisted filter presets inside
	// the user config directory
	PresetFileName = "loglens-filters.json"

	// ConfigDirName is the directory under the user config dir that holds
	// presets and the diagnostic log
	ConfigDirName = "loglens"
)

// Streaming defaults
const (
	// DefaultMaxLines caps both the raw and the filtered record buffers
	DefaultMaxLines = 100000

	// StreamRetryDelay is how long to wait before relaunching logcat after
	// it exits unexpectedly (device disconnect, adb server restart)
	StreamRetryDelay = 2 * time.Second

	// PidPollInterval is how often the package-name-to-pid mapping is
	// refreshed while a package scope is active
	PidPollInterval = 2 * time.Second

	// ExecTimeout bounds one-shot adb commands (devices, pidof, logcat -c)
	ExecTimeout = 10 * time.Second

	// ShutdownTimeout bounds graceful teardown of the API server
	ShutdownTimeout = 10 * time.Second
)

// Buffer sizes
const (
	// ScannerBufferSize is the initial buffer size for log line scanning
	ScannerBufferSize = 64 * 1024 // 64KB

	// ScannerMaxBufferSize is the maximum buffer size for log line scanning
	ScannerMaxBufferSize = 1024 * 1024 // 1MB
)

// HTTP API defaults
const (
	// DefaultAPIHost is the default host for the read-only API server
	DefaultAPIHost = "127.0.0.1"

	// DefaultAPIPort is the default port for the read-only API server
	DefaultAPIPort = 5580

	// DefaultLogLimit is the default number of log lines the API returns
	DefaultLogLimit = 100

	// MaxLogLines is the maximum number of log lines that can be requested
	// from the API in a single call
	MaxLogLines = 10000
)
