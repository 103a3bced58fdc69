package observability

import (
	"fmt"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	WindowDays       int     `yaml:"window_days" json:"window_days"`
	FallbackRate     float64 `yaml:"fallback_rate" json:"fallback_rate"`
	MinRuns          int     `yaml:"min_runs" json:"min_runs"`
	MaxErrorFindings int     `yaml:"max_error_findings" json:"max_error_findings"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		WindowDays:       7,
		FallbackRate:     0.5,
		MinRuns:          4,
		MaxErrorFindings: 10,
	}
}

// AlertEngine evaluates alert conditions against the aggregated trace.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

// alertEngine implements AlertEngine on top of the metrics aggregation.
type alertEngine struct {
	metrics    MetricsCalculator
	thresholds AlertThresholds
}

// NewAlertEngine creates an AlertEngine reading from the given metrics
// source.
func NewAlertEngine(metrics MetricsCalculator, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		metrics:    metrics,
		thresholds: thresholds,
	}
}

// Evaluate aggregates the configured window and checks all alert
// conditions, returning any triggered alerts.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := time.Now().UTC()
	since := now.AddDate(0, 0, -ae.thresholds.WindowDays)

	m, err := ae.metrics.Calculate(since)
	if err != nil {
		return nil, fmt.Errorf("aggregating window for alerts: %w", err)
	}

	var alerts []Alert
	alerts = append(alerts, ae.checkKBFailures(m, now)...)
	alerts = append(alerts, ae.checkFallbackRate(m, now)...)
	alerts = append(alerts, ae.checkErrorFindings(m, now)...)
	return alerts, nil
}

// checkKBFailures fires when any knowledge base operation failed in the
// window: a store that cannot be read or written stops all learning.
func (ae *alertEngine) checkKBFailures(m *Metrics, now time.Time) []Alert {
	if m.KBFailures == 0 {
		return nil
	}
	return []Alert{{
		ID:        "kb-failures",
		Condition: "kb_failures_present",
		Severity:  SeverityHigh,
		Message: fmt.Sprintf("%d knowledge base operation(s) failed in the last %d days",
			m.KBFailures, ae.thresholds.WindowDays),
		TriggeredAt: now,
	}}
}

// checkFallbackRate fires when the share of runs that dodged the grammar
// exceeds the threshold. Below MinRuns the window is too small to judge a
// rate.
func (ae *alertEngine) checkFallbackRate(m *Metrics, now time.Time) []Alert {
	if m.Runs < ae.thresholds.MinRuns || m.FallbackRate <= ae.thresholds.FallbackRate {
		return nil
	}
	return []Alert{{
		ID:        "fallback-rate",
		Condition: "fallback_rate_high",
		Severity:  SeverityMedium,
		Message: fmt.Sprintf("%.0f%% of %d runs used the fallback parser (threshold %.0f%%)",
			m.FallbackRate*100, m.Runs, ae.thresholds.FallbackRate*100),
		TriggeredAt: now,
	}}
}

// checkErrorFindings fires when error-severity findings pile up across the
// window.
func (ae *alertEngine) checkErrorFindings(m *Metrics, now time.Time) []Alert {
	errorCount := m.FindingsBySeverity["error"]
	if errorCount <= ae.thresholds.MaxErrorFindings {
		return nil
	}
	return []Alert{{
		ID:        "error-findings",
		Condition: "error_findings_high",
		Severity:  SeverityLow,
		Message: fmt.Sprintf("%d error findings in the last %d days (threshold %d)",
			errorCount, ae.thresholds.WindowDays, ae.thresholds.MaxErrorFindings),
		TriggeredAt: now,
	}}
}
