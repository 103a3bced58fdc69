package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/hpc-brain/internal/storage"
	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

func TestLearnAppliesCandidates(t *testing.T) {
	kbPath := filepath.Join(t.TempDir(), "kb.yaml")
	store := storage.NewKnowledgeBaseStore(kbPath)
	events := &fakeEventLogger{}
	l := NewLearner(NewPatternExtractor(), store, events)

	insights := []models.InsightRecord{{
		Title:    "Shell safety",
		Message:  "Consider using `set -e` so the job stops on the first failure.",
		Severity: models.SeverityWarning,
	}}

	result, err := l.Learn("#!/bin/bash\nbwa mem ref.fa\n", insights, false)
	if err != nil {
		t.Fatalf("Learn: %v", err)
	}
	if len(result.Accepted) != 1 {
		t.Fatalf("accepted = %d, want 1: %+v", len(result.Accepted), result)
	}

	kb, err := store.Load()
	if err != nil {
		t.Fatalf("loading store: %v", err)
	}
	if !kb.HasRule(result.Accepted[0].RuleID) {
		t.Errorf("store missing accepted rule %s", result.Accepted[0].RuleID)
	}

	if got := events.count("candidate.accepted"); got != 1 {
		t.Errorf("candidate.accepted events = %d, want 1", got)
	}
	if got := events.count("kb.updated"); got != 1 {
		t.Errorf("kb.updated events = %d, want 1", got)
	}
}

func TestLearnDryRun(t *testing.T) {
	kbPath := filepath.Join(t.TempDir(), "kb.yaml")
	store := storage.NewKnowledgeBaseStore(kbPath)
	events := &fakeEventLogger{}
	l := NewLearner(NewPatternExtractor(), store, events)

	insights := []models.InsightRecord{{
		Message: "Consider using `set -e` so the job stops on the first failure.",
	}}

	result, err := l.Learn("", insights, true)
	if err != nil {
		t.Fatalf("Learn: %v", err)
	}
	if len(result.Accepted) != 1 {
		t.Fatalf("dry run should still extract, got %d accepted", len(result.Accepted))
	}

	if len(events.events) != 0 {
		t.Errorf("dry run wrote events: %v", events.types())
	}
	if _, err := os.Stat(kbPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("dry run should not create the store")
	}
}

func TestLearnRecordsRejections(t *testing.T) {
	kbPath := filepath.Join(t.TempDir(), "kb.yaml")
	store := storage.NewKnowledgeBaseStore(kbPath)
	events := &fakeEventLogger{}
	l := NewLearner(NewPatternExtractor(), store, events)

	// An unrecognized severity flows into the candidate and fails
	// validation.
	insights := []models.InsightRecord{{
		Message:  "Use `module load gcc` consistently across steps.",
		Severity: models.Severity("critical"),
	}}

	result, err := l.Learn("", insights, false)
	if err != nil {
		t.Fatalf("Learn: %v", err)
	}
	if len(result.Accepted) != 0 {
		t.Errorf("accepted = %d, want 0", len(result.Accepted))
	}
	if len(result.Rejected) != 1 {
		t.Fatalf("rejected = %d, want 1", len(result.Rejected))
	}
	if !strings.Contains(result.Rejected[0].Reason, "severity") {
		t.Errorf("rejection reason %q does not name severity", result.Rejected[0].Reason)
	}

	if got := events.count("candidate.rejected"); got != 1 {
		t.Errorf("candidate.rejected events = %d, want 1", got)
	}
	if got := events.count("kb.updated"); got != 0 {
		t.Errorf("kb.updated events = %d, want 0", got)
	}
	if _, err := os.Stat(kbPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("store should stay untouched when nothing was accepted")
	}
}

func TestLearnSurfacesStoreFailure(t *testing.T) {
	dir := t.TempDir()
	kbPath := filepath.Join(dir, "kb.yaml")
	// A directory where the store file should be makes every store
	// operation fail.
	if err := os.Mkdir(kbPath, 0o755); err != nil {
		t.Fatalf("creating blocker: %v", err)
	}

	events := &fakeEventLogger{}
	l := NewLearner(NewPatternExtractor(), storage.NewKnowledgeBaseStore(kbPath), events)

	insights := []models.InsightRecord{{
		Message: "Consider using `set -e` so the job stops on the first failure.",
	}}

	result, err := l.Learn("", insights, false)
	if err == nil {
		t.Fatal("want error when the store cannot be written")
	}
	var ioErr *storage.StoreIOError
	if !errors.As(err, &ioErr) {
		t.Errorf("error = %v, want *storage.StoreIOError in the chain", err)
	}
	if result == nil || len(result.Accepted) != 1 {
		t.Error("extraction result should be returned alongside the error")
	}
	if got := events.count("kb.update_failed"); got != 1 {
		t.Errorf("kb.update_failed events = %d, want 1", got)
	}
}
