package reporter

import "github.com/ethanolivertroy/pyproject-deps/internal/models"

// Reporter is the interface for output formatters
type Reporter interface {
	// Report generates output for the given scan result
	Report(result *models.ScanResult) ([]byte, error)
}

// Formats lists the supported output formats
var Formats = []string{"terminal", "json", "yaml", "sarif"}

// Supported returns true if format names a known reporter
func Supported(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Get returns a reporter for the specified format
func Get(format string) Reporter {
	switch format {
	case "json":
		return &JSONReporter{}
	case "yaml":
		return &YAMLReporter{}
	case "sarif":
		return &SARIFReporter{}
	default:
		return &TerminalReporter{}
	}
}
