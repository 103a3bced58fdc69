package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

const reportTitle = "hpc-brain Analysis Report"

// Severity label styles for the text report. Lipgloss degrades these to
// plain text when stdout is not a terminal.
var (
	reportTitleStyle   = lipgloss.NewStyle().Bold(true)
	severityErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityInfoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
)

// Reporter renders an analysis report for humans and machine consumers.
type Reporter interface {
	// Render produces the plain-text report: numbered findings with
	// severity labels and line references, a summary block, and any
	// annotations the script carried.
	Render(report *models.AnalysisReport) string
	// FormatYAML serializes the full report as YAML.
	FormatYAML(report *models.AnalysisReport) (string, error)
	// FormatJSON serializes the full report as indented JSON.
	FormatJSON(report *models.AnalysisReport) (string, error)
}

type textReporter struct{}

// NewReporter creates a Reporter.
func NewReporter() Reporter {
	return &textReporter{}
}

func (r *textReporter) Render(report *models.AnalysisReport) string {
	var b strings.Builder

	b.WriteString(reportTitleStyle.Render(reportTitle))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", len(reportTitle)))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Script: %s\n\n", report.ScriptPath)

	if len(report.Findings) == 0 {
		b.WriteString("No issues detected. The script follows the known best practices.\n\n")
	} else {
		b.WriteString("Issues Found:\n\n")
		for i, f := range report.Findings {
			ref := ""
			if f.AnchorLine != nil {
				ref = fmt.Sprintf(" (line %d)", *f.AnchorLine)
			}
			fmt.Fprintf(&b, "%d. %s %s%s\n", i+1, severityLabel(f.Severity), f.Title, ref)
			for _, line := range strings.Split(f.Message, "\n") {
				b.WriteString("   " + line + "\n")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(r.renderSummary(report))

	if len(report.Annotations) > 0 {
		b.WriteString("\nAnnotations:\n")
		for _, a := range report.Annotations {
			fmt.Fprintf(&b, "  • %s\n", a)
		}
	}

	return b.String()
}

func (r *textReporter) renderSummary(report *models.AnalysisReport) string {
	var b strings.Builder

	header := "Analysis Summary:"
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("-", len(header)) + "\n")

	counts := report.CountBySeverity()
	fmt.Fprintf(&b, "  • Total findings: %d (%d error, %d warning, %d info)\n",
		len(report.Findings),
		counts[models.SeverityError], counts[models.SeverityWarning], counts[models.SeverityInfo])
	fmt.Fprintf(&b, "  • User profile: %s\n", report.Profile)

	tools := "None detected"
	if len(report.ToolsDetected) > 0 {
		tools = strings.Join(report.ToolsDetected, ", ")
	}
	fmt.Fprintf(&b, "  • Tools detected: %s\n", tools)

	mode := string(report.Mode)
	if report.Mode == models.ParseModeFallback {
		mode += " (grammar parse failed; line-oriented recovery used)"
	}
	fmt.Fprintf(&b, "  • Parse mode: %s\n", mode)

	return b.String()
}

func severityLabel(s models.Severity) string {
	label := fmt.Sprintf("[%s]", strings.ToUpper(string(s)))
	switch s {
	case models.SeverityError:
		return severityErrorStyle.Render(label)
	case models.SeverityWarning:
		return severityWarnStyle.Render(label)
	case models.SeverityInfo:
		return severityInfoStyle.Render(label)
	default:
		return label
	}
}

func (r *textReporter) FormatYAML(report *models.AnalysisReport) (string, error) {
	out, err := yaml.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}
	return string(out), nil
}

func (r *textReporter) FormatJSON(report *models.AnalysisReport) (string, error) {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}
	return string(out), nil
}
