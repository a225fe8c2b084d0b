package reporter

import (
	"encoding/json"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/ethanolivertroy/pyproject-deps/internal/models"
)

// SARIFReporter outputs findings in SARIF format for GitHub Code Scanning
type SARIFReporter struct{}

// SARIF structures
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription sarifText       `json:"shortDescription"`
	FullDescription  sarifText       `json:"fullDescription"`
	Help             sarifText       `json:"help"`
	DefaultConfig    sarifRuleConfig `json:"defaultConfiguration"`
	Properties       sarifProperties `json:"properties"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifProperties struct {
	Tags []string `json:"tags"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifText         `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           *sarifRegion  `json:"region,omitempty"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// sarifRules describes every finding kind; rule indexes follow this order.
var sarifRules = []struct {
	kind  models.FindingKind
	name  string
	short string
	full  string
	help  string
	level string
}{
	{
		kind:  models.FindingUnmatched,
		name:  "UnmatchedDeclaration",
		short: "Dependency declaration could not be parsed",
		full:  "The declaration does not follow the <name>[extras]<specifier> grammar, so no package name or version constraint could be extracted.",
		help:  "Rewrite the entry as a PEP 508 requirement, e.g. \"requests>=2.0,<3.0\".",
		level: "warning",
	},
	{
		kind:  models.FindingInvalidConstraint,
		name:  "InvalidConstraint",
		short: "Version constraint is not a valid PEP 440 specifier",
		full:  "The package name was recognized but its version specifier is rejected by PEP 440 rules.",
		help:  "Use PEP 440 comparison clauses such as \">=1.2\", \"~=1.4\" or \"==2.0.*\".",
		level: "warning",
	},
	{
		kind:  models.FindingParseError,
		name:  "ParseError",
		short: "pyproject.toml is not valid TOML",
		full:  "The file could not be parsed, so none of its dependencies were extracted.",
		help:  "Fix the TOML syntax error reported in the message.",
		level: "error",
	},
}

// Report generates SARIF output for the given scan result
func (r *SARIFReporter) Report(result *models.ScanResult) ([]byte, error) {
	rules, ruleIndexMap := r.buildRules()

	report := sarifReport{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:           "pyproject-deps",
					Version:        "1.0.0",
					InformationURI: "https://github.com/ethanolivertroy/pyproject-deps",
					Rules:          rules,
				},
			},
			Results: r.buildResults(result.Findings, ruleIndexMap),
		}},
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode SARIF report").
			WithCause(err)
	}
	return data, nil
}

func (r *SARIFReporter) buildRules() ([]sarifRule, map[models.FindingKind]int) {
	rules := make([]sarifRule, 0, len(sarifRules))
	ruleIndexMap := make(map[models.FindingKind]int, len(sarifRules))

	for _, def := range sarifRules {
		ruleIndexMap[def.kind] = len(rules)
		rules = append(rules, sarifRule{
			ID:               string(def.kind),
			Name:             def.name,
			ShortDescription: sarifText{Text: def.short},
			FullDescription:  sarifText{Text: def.full},
			Help:             sarifText{Text: def.help},
			DefaultConfig:    sarifRuleConfig{Level: def.level},
			Properties:       sarifProperties{Tags: []string{"dependencies", "python", "pyproject"}},
		})
	}

	return rules, ruleIndexMap
}

func (r *SARIFReporter) buildResults(findings []models.Finding, ruleIndexMap map[models.FindingKind]int) []sarifResult {
	results := make([]sarifResult, 0, len(findings))

	for _, f := range findings {
		idx := ruleIndexMap[f.Kind]

		location := sarifLocation{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifact{URI: f.SourceFile},
			},
		}
		if f.Line > 0 {
			location.PhysicalLocation.Region = &sarifRegion{StartLine: f.Line}
		}

		msg := f.Message
		if f.Dependency.DepType != "" {
			msg = fmt.Sprintf("%s [%s]", msg, f.Dependency.DepType)
		}

		results = append(results, sarifResult{
			RuleID:    string(f.Kind),
			RuleIndex: idx,
			Level:     sarifRules[idx].level,
			Message:   sarifText{Text: msg},
			Locations: []sarifLocation{location},
			PartialFingerprints: map[string]string{
				"primaryLocationLineHash": fmt.Sprintf("%s:%s:%s",
					f.Kind, f.Dependency.DepType, f.Dependency.Raw),
			},
		})
	}

	return results
}
