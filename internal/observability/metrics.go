package observability

import (
	"fmt"
	"time"
)

// Metrics aggregates the analysis trace over a time window.
type Metrics struct {
	Runs               int            `json:"runs"`
	FallbackRuns       int            `json:"fallback_runs"`
	FallbackRate       float64        `json:"fallback_rate"`
	RulesMatched       int            `json:"rules_matched"`
	FindingsBySeverity map[string]int `json:"findings_by_severity"`
	CandidatesAccepted int            `json:"candidates_accepted"`
	CandidatesRejected int            `json:"candidates_rejected"`
	KBUpdates          int            `json:"kb_updates"`
	KBFailures         int            `json:"kb_failures"`
	EventCount         int            `json:"event_count"`
	OldestEvent        *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent        *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator that reads from the
// given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
// Runs are counted at their start so a crashed run still shows up;
// KBFailures covers both update and load failures.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		FindingsBySeverity: make(map[string]int),
	}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "run.started":
			m.Runs++
		case "parse.fallback":
			m.FallbackRuns++
		case "rule.matched":
			m.RulesMatched++
			if sev, ok := event.Data["severity"].(string); ok {
				m.FindingsBySeverity[sev]++
			}
		case "candidate.accepted":
			m.CandidatesAccepted++
		case "candidate.rejected":
			m.CandidatesRejected++
		case "kb.updated":
			m.KBUpdates++
		case "kb.update_failed", "kb.load_failed":
			m.KBFailures++
		}
	}

	if m.Runs > 0 {
		m.FallbackRate = float64(m.FallbackRuns) / float64(m.Runs)
	}

	return m, nil
}
