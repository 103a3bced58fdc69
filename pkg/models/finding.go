package models

import "time"

// InsightRecord is one advisory finding consumed from the external advisory
// source, or recycled from a run's own findings when learning is enabled.
// LineNumber is nil when the advisory did not tie the insight to a line.
type InsightRecord struct {
	Title      string   `yaml:"title" json:"title"`
	Message    string   `yaml:"message" json:"message"`
	Severity   Severity `yaml:"severity" json:"severity"`
	Confidence float64  `yaml:"confidence" json:"confidence"`
	LineNumber *int     `yaml:"line_number,omitempty" json:"line_number,omitempty"`
	Category   string   `yaml:"category,omitempty" json:"category,omitempty"`
}

// Finding is one rule match against a script. AnchorLine is nil for
// absence patterns, which report that something is missing rather than
// pointing at a line.
type Finding struct {
	RuleID     string   `yaml:"rule_id" json:"rule_id"`
	Title      string   `yaml:"title" json:"title"`
	Message    string   `yaml:"message" json:"message"`
	Severity   Severity `yaml:"severity" json:"severity"`
	Confidence float64  `yaml:"confidence" json:"confidence"`
	AnchorLine *int     `yaml:"anchor_line,omitempty" json:"anchor_line,omitempty"`
	Source     string   `yaml:"source,omitempty" json:"source,omitempty"`
}

// ToInsight converts a finding into the advisory record shape so a run's
// own findings can feed the extraction pipeline.
func (f Finding) ToInsight() InsightRecord {
	return InsightRecord{
		Title:      f.Title,
		Message:    f.Message,
		Severity:   f.Severity,
		Confidence: f.Confidence,
		LineNumber: f.AnchorLine,
		Category:   f.Source,
	}
}

// AnalysisReport is the synthesized outcome of analyzing one script.
type AnalysisReport struct {
	RunID         string        `yaml:"run_id" json:"run_id"`
	ScriptPath    string        `yaml:"script" json:"script"`
	Mode          ParseMode     `yaml:"parse_mode" json:"parse_mode"`
	Profile       AudienceTier  `yaml:"profile" json:"profile"`
	ElementCount  int           `yaml:"element_count" json:"element_count"`
	Findings      []Finding     `yaml:"findings" json:"findings"`
	ToolsDetected []string      `yaml:"tools_detected,omitempty" json:"tools_detected,omitempty"`
	Annotations   []string      `yaml:"annotations,omitempty" json:"annotations,omitempty"`
	StartedAt     time.Time     `yaml:"started_at" json:"started_at"`
	Duration      time.Duration `yaml:"duration_ns" json:"duration_ns"`
}

// CountBySeverity returns the number of findings per severity level.
func (r *AnalysisReport) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, 3)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}
