// Package config defines environment-specific settings for the PDF print service.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Build variables, injected at compile time
var (
	BuildEnvironment = "local"
	BuildDate        = "unknown"
	BuildTime        = "unknown"
	// ServiceName is used for logging and as part of the log file path.
	ServiceName = "PdfPrintServicio_Unknown"
	// AuthTokenHashB64 is a base64-encoded bcrypt hash of the shared client token.
	// If empty, WebSocket requests are accepted without a token (dev mode).
	AuthTokenHashB64 = ""
	// ServerPort is the default port for the service, can be overridden by environment config.
	ServerPort = "8767"
	// AllowedOrigins is a comma-separated list of allowed origins injected via ldflags.
	// Example: "https://pos.example.com,http://localhost:*"
	AllowedOrigins = ""
	// RasterSnapshotDir enables BMP snapshots of every rasterized page (Windows).
	RasterSnapshotDir = ""
)

// PrintPolicy bounds caching, staging and rasterization
type PrintPolicy struct {
	CacheTTL          time.Duration
	MaxRenderDPI      uint32
	MaxRenderDim      uint32
	TempDir           string
	TempPrefix        string
	RasterSnapshotDir string
}

// DefaultPrintPolicy returns the stock limits
func DefaultPrintPolicy() PrintPolicy {
	return PrintPolicy{
		CacheTTL:     30 * time.Second,
		MaxRenderDPI: 150,
		MaxRenderDim: 2000,
		TempDir:      os.TempDir(),
		TempPrefix:   "native-pdf-print",
	}
}

// Environment holds environment-specific settings
type Environment struct {
	// Identity
	Name        string
	ServiceName string

	// Network
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Queue
	QueueCapacity int

	// Logging
	Verbose bool

	// Printing
	Print PrintPolicy

	// Security
	AllowedOrigins []string
}

// LogPath returns the full log file path for this environment.
// Uses the convention: <programData>/<ServiceName>/<ServiceName>.log
func (e Environment) LogPath(programData string) string {
	return filepath.Join(programData, e.ServiceName, e.ServiceName+".log")
}

// environments defines available deployment configurations
var environments = map[string]Environment{
	"remote": {
		Name:          "REMOTO",
		ServiceName:   ServiceName,
		ListenAddr:    "0.0.0.0:" + ServerPort,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		QueueCapacity: 50,
		Verbose:       false,
		Print:         DefaultPrintPolicy(),
		// By default, restrict to localhost and file (Electron) for security
		AllowedOrigins: []string{"http://localhost:*", "https://localhost:*", "file://*"},
	},
	"local": {
		Name:          "LOCAL",
		ServiceName:   ServiceName,
		ListenAddr:    "localhost:" + ServerPort,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   120 * time.Second,
		QueueCapacity: 50,
		Verbose:       true,
		Print:         DefaultPrintPolicy(),
		// Allow all in local dev mode for convenience, but can be overridden
		AllowedOrigins: []string{"*"},
	},
}

// GetEnvironment returns config for the specified environment.
func GetEnvironment(env string) Environment {
	cfg, ok := environments[env]
	if !ok {
		log.Printf("[!] Unknown environment '%s', defaulting to 'local'", env)
		cfg = environments["local"]
	}

	// Override allowed origins from ldflags if provided
	if AllowedOrigins != "" {
		cfg.AllowedOrigins = strings.Split(AllowedOrigins, ",")
	}
	if RasterSnapshotDir != "" {
		cfg.Print.RasterSnapshotDir = RasterSnapshotDir
	}

	return cfg
}
