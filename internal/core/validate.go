package core

import (
	"fmt"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// CandidateError reports why a candidate rule was rejected. Field names the
// offending field so the rejection reason stays actionable downstream.
type CandidateError struct {
	Field  string
	Reason string
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("invalid candidate rule: %s: %s", e.Field, e.Reason)
}

// ValidateCandidate checks a candidate rule against the knowledge base
// schema. It returns nil to admit the candidate or a *CandidateError naming
// the first offending field. Validation is pure: it never consults the
// knowledge store, so the same candidate always validates the same way.
func ValidateCandidate(r *models.RuleDefinition) error {
	if r == nil {
		return &CandidateError{Field: "rule", Reason: "candidate is nil"}
	}
	if r.RuleID == "" {
		return &CandidateError{Field: "rule_id", Reason: "missing required field"}
	}
	if r.Description == "" {
		return &CandidateError{Field: "description", Reason: "missing required field"}
	}
	if r.Severity == "" {
		return &CandidateError{Field: "severity", Reason: "missing required field"}
	}
	if len(r.Feedback) == 0 {
		return &CandidateError{Field: "feedback", Reason: "missing required field"}
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return &CandidateError{
			Field:  "confidence",
			Reason: fmt.Sprintf("value %g outside [0, 1]", r.Confidence),
		}
	}
	if !models.ValidSeverity(r.Severity) {
		return &CandidateError{
			Field:  "severity",
			Reason: fmt.Sprintf("unrecognized severity %q, must be one of: info, warning, error", r.Severity),
		}
	}
	for _, tier := range models.AudienceTiers {
		fb, ok := r.Feedback[tier]
		if !ok {
			return &CandidateError{
				Field:  "feedback." + string(tier),
				Reason: "missing audience tier",
			}
		}
		if fb.Title == "" || fb.Message == "" {
			return &CandidateError{
				Field:  "feedback." + string(tier),
				Reason: "title and message must not be empty",
			}
		}
	}
	return nil
}
