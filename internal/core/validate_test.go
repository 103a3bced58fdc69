package core

import (
	"errors"
	"testing"
	"time"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// validCandidate returns a candidate that passes every validation check.
// Tests mutate single fields to probe individual rejections.
func validCandidate() *models.RuleDefinition {
	return &models.RuleDefinition{
		RuleID:      "LEARNED-DEADBEEF",
		Description: "Learned pattern: lfs setstripe -c 1",
		Severity:    models.SeverityWarning,
		TriggerConditions: []models.TriggerCondition{
			{Type: models.CondCommandContains, Value: "lfs setstripe -c 1"},
		},
		Feedback: map[models.AudienceTier]models.FeedbackEntry{
			models.TierBasic:    {Title: "Potential issue detected", Message: "Check this pattern."},
			models.TierMedium:   {Title: "Pattern detected", Message: "Review the striping layout."},
			models.TierAdvanced: {Title: "Suboptimal pattern", Message: "Stripe count 1 serializes IO."},
		},
		Confidence: 0.8,
		Provenance: models.ProvenanceLearned,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestValidateCandidateAccepts(t *testing.T) {
	if err := ValidateCandidate(validCandidate()); err != nil {
		t.Fatalf("ValidateCandidate() = %v, want nil", err)
	}
}

func TestValidateCandidateRejections(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.RuleDefinition)
		wantField string
	}{
		{
			name:      "missing rule_id",
			mutate:    func(r *models.RuleDefinition) { r.RuleID = "" },
			wantField: "rule_id",
		},
		{
			name:      "missing description",
			mutate:    func(r *models.RuleDefinition) { r.Description = "" },
			wantField: "description",
		},
		{
			name:      "missing severity",
			mutate:    func(r *models.RuleDefinition) { r.Severity = "" },
			wantField: "severity",
		},
		{
			name:      "missing feedback",
			mutate:    func(r *models.RuleDefinition) { r.Feedback = nil },
			wantField: "feedback",
		},
		{
			name:      "confidence below zero",
			mutate:    func(r *models.RuleDefinition) { r.Confidence = -0.1 },
			wantField: "confidence",
		},
		{
			name:      "confidence above one",
			mutate:    func(r *models.RuleDefinition) { r.Confidence = 1.5 },
			wantField: "confidence",
		},
		{
			name:      "unrecognized severity",
			mutate:    func(r *models.RuleDefinition) { r.Severity = "critical" },
			wantField: "severity",
		},
		{
			name: "missing advanced tier",
			mutate: func(r *models.RuleDefinition) {
				delete(r.Feedback, models.TierAdvanced)
			},
			wantField: "feedback.advanced",
		},
		{
			name: "empty basic title",
			mutate: func(r *models.RuleDefinition) {
				fb := r.Feedback[models.TierBasic]
				fb.Title = ""
				r.Feedback[models.TierBasic] = fb
			},
			wantField: "feedback.basic",
		},
		{
			name: "empty medium message",
			mutate: func(r *models.RuleDefinition) {
				fb := r.Feedback[models.TierMedium]
				fb.Message = ""
				r.Feedback[models.TierMedium] = fb
			},
			wantField: "feedback.medium",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validCandidate()
			tt.mutate(r)

			err := ValidateCandidate(r)
			if err == nil {
				t.Fatal("ValidateCandidate() = nil, want rejection")
			}

			var cerr *CandidateError
			if !errors.As(err, &cerr) {
				t.Fatalf("error type = %T, want *CandidateError", err)
			}
			if cerr.Field != tt.wantField {
				t.Errorf("rejected field = %q, want %q", cerr.Field, tt.wantField)
			}
		})
	}
}

func TestValidateCandidateNil(t *testing.T) {
	err := ValidateCandidate(nil)
	var cerr *CandidateError
	if !errors.As(err, &cerr) {
		t.Fatalf("error type = %T, want *CandidateError", err)
	}
}

func TestValidateCandidateZeroConfidence(t *testing.T) {
	// Zero is a legal confidence; only out-of-range values reject.
	r := validCandidate()
	r.Confidence = 0
	if err := ValidateCandidate(r); err != nil {
		t.Fatalf("ValidateCandidate() = %v, want nil for confidence 0", err)
	}
}
