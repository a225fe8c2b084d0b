package reporter

import (
	"encoding/json"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/ethanolivertroy/pyproject-deps/internal/models"
)

// JSONReporter outputs the scan result in JSON format
type JSONReporter struct{}

// output is the document shared by the JSON and YAML reporters
type output struct {
	Summary  summary       `json:"summary" yaml:"summary"`
	Files    []fileOutput  `json:"files" yaml:"files"`
	Findings []findingItem `json:"findings" yaml:"findings"`
}

type summary struct {
	TotalFiles        int `json:"total_files" yaml:"total_files"`
	TotalDependencies int `json:"total_dependencies" yaml:"total_dependencies"`
	TotalFindings     int `json:"total_findings" yaml:"total_findings"`
}

type fileOutput struct {
	Path string      `json:"path" yaml:"path"`
	Deps []depOutput `json:"deps" yaml:"deps"`
}

// depOutput leaves depName and currentValue out for unmatched declarations.
type depOutput struct {
	DepName      *string `json:"depName,omitempty" yaml:"depName,omitempty"`
	CurrentValue *string `json:"currentValue,omitempty" yaml:"currentValue,omitempty"`
	Datasource   string  `json:"datasource" yaml:"datasource"`
	Versioning   string  `json:"versioning" yaml:"versioning"`
	DepType      string  `json:"depType" yaml:"depType"`
	Raw          string  `json:"raw" yaml:"raw"`
	Line         int     `json:"line,omitempty" yaml:"line,omitempty"`
}

type findingItem struct {
	Kind       string `json:"kind" yaml:"kind"`
	SourceFile string `json:"source_file" yaml:"source_file"`
	Line       int    `json:"line,omitempty" yaml:"line,omitempty"`
	DepType    string `json:"dep_type,omitempty" yaml:"dep_type,omitempty"`
	Raw        string `json:"raw,omitempty" yaml:"raw,omitempty"`
	Message    string `json:"message" yaml:"message"`
}

// Report generates JSON output for the given scan result
func (r *JSONReporter) Report(result *models.ScanResult) ([]byte, error) {
	data, err := json.MarshalIndent(buildOutput(result), "", "  ")
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode JSON report").
			WithCause(err)
	}
	return data, nil
}

func buildOutput(result *models.ScanResult) output {
	out := output{
		Summary: summary{
			TotalFiles:        len(result.Files),
			TotalDependencies: result.DependencyCount(),
			TotalFindings:     len(result.Findings),
		},
		Files:    make([]fileOutput, 0, len(result.Files)),
		Findings: make([]findingItem, 0, len(result.Findings)),
	}

	for _, f := range result.Files {
		fo := fileOutput{
			Path: f.Path,
			Deps: make([]depOutput, 0, len(f.Deps)),
		}
		for _, d := range f.Deps {
			fo.Deps = append(fo.Deps, toDepOutput(d))
		}
		out.Files = append(out.Files, fo)
	}

	for _, f := range result.Findings {
		out.Findings = append(out.Findings, findingItem{
			Kind:       string(f.Kind),
			SourceFile: f.SourceFile,
			Line:       f.Line,
			DepType:    f.Dependency.DepType,
			Raw:        f.Dependency.Raw,
			Message:    f.Message,
		})
	}

	return out
}

func toDepOutput(d models.Dependency) depOutput {
	do := depOutput{
		Datasource: string(d.Datasource),
		Versioning: d.Versioning,
		DepType:    d.DepType,
		Raw:        d.Raw,
		Line:       d.Line,
	}
	if d.Matched() {
		name, value := d.Name, d.CurrentValue
		do.DepName = &name
		do.CurrentValue = &value
	}
	return do
}
