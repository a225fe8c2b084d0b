package models

import "time"

// Config holds configuration for the scanner
type Config struct {
	// Paths to scan for pyproject.toml files
	Paths []string

	// Directory names skipped during directory walks, in addition to the
	// built-in vendor and virtualenv directories
	Exclude []string

	// Output settings
	OutputFormat string // "terminal", "json", "yaml", "sarif"
	OutputFile   string // Optional output file path

	// Behavior settings
	FailOnInvalid       bool // Exit with code 1 if findings are reported
	ValidateConstraints bool // Check matched specifiers against PEP 440

	// Cache settings
	CacheDir string // Defaults to ~/.cache/pyproject-deps
	CacheTTL time.Duration
	NoCache  bool
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Paths:               []string{"."},
		OutputFormat:        "terminal",
		FailOnInvalid:       true,
		ValidateConstraints: false,
		CacheTTL:            24 * time.Hour,
		NoCache:             false,
	}
}
