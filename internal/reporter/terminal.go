package reporter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ethanolivertroy/pyproject-deps/internal/models"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	styleFile    = lipgloss.NewStyle().Bold(true)
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("167"))
)

// TerminalReporter outputs the scan result in a human-readable terminal format
type TerminalReporter struct{}

// Report generates terminal output for the given scan result
func (r *TerminalReporter) Report(result *models.ScanResult) ([]byte, error) {
	if len(result.Files) == 0 && len(result.Findings) == 0 {
		return []byte("No pyproject.toml files found.\n"), nil
	}

	var sb strings.Builder

	// Summary
	sb.WriteString(styleTitle.Render("PYPROJECT DEPENDENCIES") + "\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")
	sb.WriteString(fmt.Sprintf("Found %d dependencies in %d files\n", result.DependencyCount(), len(result.Files)))
	if len(result.Findings) > 0 {
		sb.WriteString(styleWarning.Render(fmt.Sprintf("%d declarations need attention", len(result.Findings))) + "\n")
	}
	sb.WriteString("\n")

	// Details
	for _, f := range result.Files {
		sb.WriteString(styleFile.Render(f.Path) + "\n")
		if len(f.Deps) == 0 {
			sb.WriteString(styleDim.Render("   no dependencies declared") + "\n")
		}

		depType := ""
		for _, d := range f.Deps {
			if d.DepType != depType {
				depType = d.DepType
				sb.WriteString(fmt.Sprintf("   [%s]\n", depType))
			}
			line := ""
			if d.Line > 0 {
				line = styleDim.Render(fmt.Sprintf(" (line %d)", d.Line))
			}
			if !d.Matched() {
				sb.WriteString(fmt.Sprintf("      %s%s\n", styleError.Render("? "+d.Raw), line))
				continue
			}
			value := d.CurrentValue
			if value == "" {
				value = styleDim.Render("any")
			}
			sb.WriteString(fmt.Sprintf("      %s %s%s\n", d.Name, value, line))
		}
		sb.WriteString("\n" + strings.Repeat("-", 60) + "\n")
	}

	if len(result.Findings) > 0 {
		sb.WriteString("\n" + styleTitle.Render("FINDINGS") + "\n")
		for _, f := range result.Findings {
			loc := f.SourceFile
			if f.Line > 0 {
				loc = fmt.Sprintf("%s:%d", loc, f.Line)
			}
			sb.WriteString(fmt.Sprintf("   %s %s\n", styleError.Render(string(f.Kind)), loc))

			// Truncate long messages
			msg := f.Message
			if len(msg) > 200 {
				msg = msg[:197] + "..."
			}
			sb.WriteString(fmt.Sprintf("      %s\n", msg))
		}
	}

	return []byte(sb.String()), nil
}
