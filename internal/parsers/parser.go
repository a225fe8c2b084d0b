package parsers

import "github.com/ethanolivertroy/pyproject-deps/internal/models"

// Parser is the interface for dependency file parsers
type Parser interface {
	// CanParse returns true if this parser can handle the given path
	CanParse(path string) bool

	// Parse extracts dependencies from the file content
	Parse(path string, content []byte) (*models.PackageFile, error)
}

// Manager describes how the host discovers and looks up files handled by a parser.
type Manager struct {
	Name                 string
	FileMatch            []string
	SupportedDatasources []models.Datasource
	Categories           []string
}

// GetAllParsers returns all available parsers
func GetAllParsers() []Parser {
	return []Parser{
		NewPyProjectParser(),
	}
}
