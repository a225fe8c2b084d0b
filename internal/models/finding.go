package models

// FindingKind classifies a problem reported for a declaration or file.
type FindingKind string

const (
	FindingUnmatched         FindingKind = "unmatched-declaration"
	FindingInvalidConstraint FindingKind = "invalid-constraint"
	FindingParseError        FindingKind = "parse-error"
)

// Finding represents a declaration (or whole file) that cannot be handed to
// an update pipeline as-is.
type Finding struct {
	Kind       FindingKind
	Dependency Dependency // Zero value for parse-error findings
	SourceFile string
	Line       int
	Message    string
}

// IsFileLevel returns true if the finding refers to the whole file
func (f Finding) IsFileLevel() bool {
	return f.Kind == FindingParseError
}
