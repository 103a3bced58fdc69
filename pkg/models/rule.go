package models

import "time"

// Severity ranks how serious a rule or finding is.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ValidSeverity reports whether s is one of the recognized levels.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// SeverityRank orders severities for sorting; higher is more severe.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// AudienceTier selects the verbosity level of rule feedback. Every rule
// carries feedback for all three tiers.
type AudienceTier string

const (
	TierBasic    AudienceTier = "basic"
	TierMedium   AudienceTier = "medium"
	TierAdvanced AudienceTier = "advanced"
)

// AudienceTiers lists the mandatory feedback tiers.
var AudienceTiers = []AudienceTier{TierBasic, TierMedium, TierAdvanced}

// ValidAudienceTier reports whether t is one of the three fixed tiers.
func ValidAudienceTier(t AudienceTier) bool {
	switch t {
	case TierBasic, TierMedium, TierAdvanced:
		return true
	}
	return false
}

// FeedbackEntry is one audience tier's title and message for a rule.
type FeedbackEntry struct {
	Title   string `yaml:"title" json:"title"`
	Message string `yaml:"message" json:"message"`
}

// ConditionType identifies the predicate a trigger condition applies to an
// element sequence.
type ConditionType string

const (
	CondCommandContains  ConditionType = "command_contains"
	CondCommandMatches   ConditionType = "command_matches"
	CondCommandCategory  ConditionType = "command_category"
	CondCommandAbsent    ConditionType = "command_absent"
	CondDirectivePresent ConditionType = "directive_present"
	CondDirectiveAbsent  ConditionType = "directive_absent"
)

// Absence reports whether t asserts that something is missing from the
// script. Absence conditions can satisfy a rule but never anchor a match
// to a line.
func (t ConditionType) Absence() bool {
	return t == CondCommandAbsent || t == CondDirectiveAbsent
}

// TriggerCondition is one typed predicate in a rule's ordered trigger set.
// Conditions combine as a conjunction; conditions marked Alternative form a
// single disjunctive group of which at least one must hold.
type TriggerCondition struct {
	Type        ConditionType `yaml:"type" json:"type"`
	Value       string        `yaml:"value" json:"value"`
	Alternative bool          `yaml:"alternative,omitempty" json:"alternative,omitempty"`
}

// Provenance records how a rule entered the knowledge base.
type Provenance string

const (
	ProvenanceAuthored Provenance = "authored"
	ProvenanceLearned  Provenance = "learned"
)

// RuleDefinition is one deterministic rule: its trigger conditions and the
// tiered feedback shown when it matches. Learned rules are synthesized by
// the extraction pipeline; authored rules ship with the domain checkers.
type RuleDefinition struct {
	RuleID            string                         `yaml:"rule_id" json:"rule_id"`
	Description       string                         `yaml:"description" json:"description"`
	Severity          Severity                       `yaml:"severity" json:"severity"`
	TriggerConditions []TriggerCondition             `yaml:"trigger_conditions" json:"trigger_conditions"`
	Feedback          map[AudienceTier]FeedbackEntry `yaml:"feedback" json:"feedback"`
	Confidence        float64                        `yaml:"confidence" json:"confidence"`
	Provenance        Provenance                     `yaml:"provenance" json:"provenance"`
	CreatedAt         time.Time                      `yaml:"created_at" json:"created_at"`
}

// FeedbackFor returns the feedback entry for the given tier, falling back
// to the medium tier when the requested one is absent.
func (r *RuleDefinition) FeedbackFor(tier AudienceTier) FeedbackEntry {
	if fb, ok := r.Feedback[tier]; ok {
		return fb
	}
	return r.Feedback[TierMedium]
}

// RejectedCandidate records a candidate rule dropped by validation,
// keeping the reason for diagnosability.
type RejectedCandidate struct {
	RuleID  string `yaml:"rule_id,omitempty" json:"rule_id,omitempty"`
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Reason  string `yaml:"reason" json:"reason"`
}

// LearningResult is the outcome of one extraction batch: the candidates
// admitted to the knowledge base and the ones dropped with reasons. Context
// preserves the head of the analyzed script for diagnostics.
type LearningResult struct {
	Context  string              `yaml:"context,omitempty" json:"context,omitempty"`
	Accepted []RuleDefinition    `yaml:"accepted" json:"accepted"`
	Rejected []RejectedCandidate `yaml:"rejected,omitempty" json:"rejected,omitempty"`
}
