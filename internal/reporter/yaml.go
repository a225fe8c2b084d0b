package reporter

import (
	"bytes"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"github.com/ethanolivertroy/pyproject-deps/internal/models"
)

// YAMLReporter outputs the scan result in YAML format
type YAMLReporter struct{}

// Report generates YAML output for the given scan result
func (r *YAMLReporter) Report(result *models.ScanResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(buildOutput(result)); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode YAML report").
			WithCause(err)
	}
	if err := enc.Close(); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode YAML report").
			WithCause(err)
	}
	return buf.Bytes(), nil
}
