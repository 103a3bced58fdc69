package observability

import (
	"testing"
	"time"
)

func newTestAlertEngine(log EventLog) AlertEngine {
	return NewAlertEngine(NewMetricsCalculator(log), DefaultAlertThresholds())
}

func TestAlertEngine_KBFailureAlert(t *testing.T) {
	log := newTestLog(t)

	// A single failed store write inside the window is enough to page.
	event := Event{
		Time:    time.Now().UTC().Add(-time.Hour),
		Level:   LevelError,
		Type:    "kb.update_failed",
		Message: "knowledge base update failed",
		Data:    map[string]any{"error": "disk full"},
	}
	if err := log.Write(event); err != nil {
		t.Fatalf("writing event: %v", err)
	}

	alerts, err := newTestAlertEngine(log).Evaluate()
	if err != nil {
		t.Fatalf("evaluating alerts: %v", err)
	}

	found := false
	for _, a := range alerts {
		if a.Condition == "kb_failures_present" && a.ID == "kb-failures" {
			found = true
			if a.Severity != SeverityHigh {
				t.Errorf("expected high severity, got %s", a.Severity)
			}
		}
	}

	if !found {
		t.Error("expected knowledge base failure alert but none found")
	}
}

func TestAlertEngine_FallbackRateAlert(t *testing.T) {
	log := newTestLog(t)
	base := time.Now().UTC().Add(-time.Hour)

	// 4 of 6 runs on the fallback parser is above the 50% threshold.
	writeEvents(t, log, base, []Event{
		{Type: "run.started"},
		{Type: "parse.fallback", Level: LevelWarn},
		{Type: "run.started"},
		{Type: "parse.fallback", Level: LevelWarn},
		{Type: "run.started"},
		{Type: "parse.fallback", Level: LevelWarn},
		{Type: "run.started"},
		{Type: "parse.fallback", Level: LevelWarn},
		{Type: "run.started"},
		{Type: "run.started"},
	})

	alerts, err := newTestAlertEngine(log).Evaluate()
	if err != nil {
		t.Fatalf("evaluating alerts: %v", err)
	}

	found := false
	for _, a := range alerts {
		if a.Condition == "fallback_rate_high" && a.ID == "fallback-rate" {
			found = true
			if a.Severity != SeverityMedium {
				t.Errorf("expected medium severity, got %s", a.Severity)
			}
		}
	}

	if !found {
		t.Error("expected fallback rate alert but none found")
	}
}

func TestAlertEngine_NoFallbackAlertBelowMinRuns(t *testing.T) {
	log := newTestLog(t)
	base := time.Now().UTC().Add(-time.Hour)

	// Both runs fell back, but two runs is below the minimum sample size.
	writeEvents(t, log, base, []Event{
		{Type: "run.started"},
		{Type: "parse.fallback", Level: LevelWarn},
		{Type: "run.started"},
		{Type: "parse.fallback", Level: LevelWarn},
	})

	alerts, err := newTestAlertEngine(log).Evaluate()
	if err != nil {
		t.Fatalf("evaluating alerts: %v", err)
	}

	for _, a := range alerts {
		if a.Condition == "fallback_rate_high" {
			t.Error("did not expect fallback alert below the minimum run count")
		}
	}
}

func TestAlertEngine_NoFallbackAlertAtThreshold(t *testing.T) {
	log := newTestLog(t)
	base := time.Now().UTC().Add(-time.Hour)

	// Exactly 50% of 4 runs sits on the threshold, which does not fire.
	writeEvents(t, log, base, []Event{
		{Type: "run.started"},
		{Type: "parse.fallback", Level: LevelWarn},
		{Type: "run.started"},
		{Type: "parse.fallback", Level: LevelWarn},
		{Type: "run.started"},
		{Type: "run.started"},
	})

	alerts, err := newTestAlertEngine(log).Evaluate()
	if err != nil {
		t.Fatalf("evaluating alerts: %v", err)
	}

	for _, a := range alerts {
		if a.Condition == "fallback_rate_high" {
			t.Error("did not expect fallback alert at exactly the threshold rate")
		}
	}
}

func TestAlertEngine_ErrorFindingsAlert(t *testing.T) {
	log := newTestLog(t)
	base := time.Now().UTC().Add(-time.Hour)

	// 11 error findings exceed the default ceiling of 10.
	events := make([]Event, 0, 11)
	for i := 0; i < 11; i++ {
		events = append(events, Event{
			Type: "rule.matched",
			Data: map[string]any{"rule_id": "LEARNED-1A2B3C4D", "severity": "error"},
		})
	}
	writeEvents(t, log, base, events)

	alerts, err := newTestAlertEngine(log).Evaluate()
	if err != nil {
		t.Fatalf("evaluating alerts: %v", err)
	}

	found := false
	for _, a := range alerts {
		if a.Condition == "error_findings_high" && a.ID == "error-findings" {
			found = true
			if a.Severity != SeverityLow {
				t.Errorf("expected low severity, got %s", a.Severity)
			}
		}
	}

	if !found {
		t.Error("expected error findings alert but none found")
	}
}

func TestAlertEngine_NoAlertsOnCleanState(t *testing.T) {
	log := newTestLog(t)

	alerts, err := newTestAlertEngine(log).Evaluate()
	if err != nil {
		t.Fatalf("evaluating alerts: %v", err)
	}

	if len(alerts) != 0 {
		t.Errorf("expected 0 alerts on clean state, got %d", len(alerts))
	}
}

func TestAlertEngine_IgnoresEventsOutsideWindow(t *testing.T) {
	log := newTestLog(t)

	// A failure 10 days back falls outside the default 7-day window.
	event := Event{
		Time:    time.Now().UTC().Add(-10 * 24 * time.Hour),
		Level:   LevelError,
		Type:    "kb.update_failed",
		Message: "knowledge base update failed",
		Data:    map[string]any{"error": "disk full"},
	}
	if err := log.Write(event); err != nil {
		t.Fatalf("writing event: %v", err)
	}

	alerts, err := newTestAlertEngine(log).Evaluate()
	if err != nil {
		t.Fatalf("evaluating alerts: %v", err)
	}

	for _, a := range alerts {
		if a.Condition == "kb_failures_present" {
			t.Error("did not expect alert for failure outside the window")
		}
	}
}

func TestAlertEngine_MultipleConditionsOrdered(t *testing.T) {
	log := newTestLog(t)
	base := time.Now().UTC().Add(-time.Hour)

	events := []Event{
		{Type: "kb.update_failed", Level: LevelError, Data: map[string]any{"error": "disk full"}},
		{Type: "run.started"},
		{Type: "parse.fallback", Level: LevelWarn},
		{Type: "run.started"},
		{Type: "parse.fallback", Level: LevelWarn},
		{Type: "run.started"},
		{Type: "parse.fallback", Level: LevelWarn},
		{Type: "run.started"},
	}
	for i := 0; i < 11; i++ {
		events = append(events, Event{
			Type: "rule.matched",
			Data: map[string]any{"rule_id": "SLURM-001", "severity": "error"},
		})
	}
	writeEvents(t, log, base, events)

	alerts, err := newTestAlertEngine(log).Evaluate()
	if err != nil {
		t.Fatalf("evaluating alerts: %v", err)
	}

	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(alerts))
	}
	wantOrder := []string{"kb-failures", "fallback-rate", "error-findings"}
	for i, want := range wantOrder {
		if alerts[i].ID != want {
			t.Errorf("alert %d: expected %s, got %s", i, want, alerts[i].ID)
		}
	}
}
