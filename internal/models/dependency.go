package models

// Datasource identifies the package registry a dependency is looked up against.
type Datasource string

const (
	DatasourcePyPI Datasource = "pypi"
)

// Dependency group tags.
const (
	DepTypeBuildSystem = "devDependencies"
	DepTypeProject     = "dependencies"

	optionalGroupSuffix = "Dependencies"
	hatchEnvSuffix      = "EnvDependencies"
)

// OptionalGroupDepType returns the group tag for a project.optional-dependencies group.
func OptionalGroupDepType(group string) string {
	return group + optionalGroupSuffix
}

// HatchEnvDepType returns the group tag for a tool.hatch.envs environment.
func HatchEnvDepType(env string) string {
	return env + hatchEnvSuffix
}

// Dependency represents a single declared package dependency.
//
// Name and CurrentValue are empty when the declaration did not match the
// dependency grammar. A matched Name is never empty, while a matched
// CurrentValue is empty when the declaration carries no version specifier.
type Dependency struct {
	Name         string
	CurrentValue string
	Datasource   Datasource
	Versioning   string
	DepType      string
	Raw          string // Declaration string as written in the source file
	SourceFile   string // File where this dependency was found
	Line         int    // Line number in source file (if available)
}

// Matched reports whether the declaration string matched the dependency grammar.
func (d Dependency) Matched() bool {
	return d.Name != ""
}

// String returns a human-readable representation
func (d Dependency) String() string {
	if !d.Matched() {
		return d.Raw
	}
	return d.Name + d.CurrentValue
}

// PackageFile is the extraction result for one manifest file.
type PackageFile struct {
	Path string
	Deps []Dependency
}
