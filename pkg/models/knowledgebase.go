package models

import "time"

// KnowledgeBaseVersion is the schema version written to a freshly
// initialized knowledge base document.
const KnowledgeBaseVersion = "1.0.0"

// RuleCategory names one rule list in the knowledge base document.
type RuleCategory string

const (
	CategoryLustre   RuleCategory = "lustre_rules"
	CategorySlurm    RuleCategory = "slurm_rules"
	CategoryWorkflow RuleCategory = "workflow_patterns"
	CategoryGeneral  RuleCategory = "general_logic_rules"
)

// RuleCategories lists every category in document order.
var RuleCategories = []RuleCategory{
	CategoryLustre,
	CategorySlurm,
	CategoryWorkflow,
	CategoryGeneral,
}

// KnowledgeBase is the persisted, versioned ledger of accepted rules. The
// store is its sole owner: the extraction pipeline proposes rules, only the
// store writes them.
type KnowledgeBase struct {
	Version          string           `yaml:"version"`
	LastUpdated      time.Time        `yaml:"last_updated"`
	LustreRules      []RuleDefinition `yaml:"lustre_rules"`
	SlurmRules       []RuleDefinition `yaml:"slurm_rules"`
	WorkflowPatterns []RuleDefinition `yaml:"workflow_patterns"`
	GeneralRules     []RuleDefinition `yaml:"general_logic_rules"`
}

// NewKnowledgeBase returns an empty document with the base schema.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		Version:     KnowledgeBaseVersion,
		LastUpdated: time.Now().UTC(),
	}
}

// CategoryRules returns the ordered rule list for a category.
func (kb *KnowledgeBase) CategoryRules(c RuleCategory) []RuleDefinition {
	switch c {
	case CategoryLustre:
		return kb.LustreRules
	case CategorySlurm:
		return kb.SlurmRules
	case CategoryWorkflow:
		return kb.WorkflowPatterns
	case CategoryGeneral:
		return kb.GeneralRules
	}
	return nil
}

// AppendRule adds a rule to the end of the given category's list. Unknown
// categories route to the general list so no rule is ever dropped.
func (kb *KnowledgeBase) AppendRule(c RuleCategory, r RuleDefinition) {
	switch c {
	case CategoryLustre:
		kb.LustreRules = append(kb.LustreRules, r)
	case CategorySlurm:
		kb.SlurmRules = append(kb.SlurmRules, r)
	case CategoryWorkflow:
		kb.WorkflowPatterns = append(kb.WorkflowPatterns, r)
	default:
		kb.GeneralRules = append(kb.GeneralRules, r)
	}
}

// AllRules returns every rule in category order, categories in document
// order.
func (kb *KnowledgeBase) AllRules() []RuleDefinition {
	var rules []RuleDefinition
	for _, c := range RuleCategories {
		rules = append(rules, kb.CategoryRules(c)...)
	}
	return rules
}

// FindRule returns the rule with the given ID and the category holding it.
func (kb *KnowledgeBase) FindRule(id string) (RuleDefinition, RuleCategory, bool) {
	for _, c := range RuleCategories {
		for _, r := range kb.CategoryRules(c) {
			if r.RuleID == id {
				return r, c, true
			}
		}
	}
	return RuleDefinition{}, "", false
}

// HasRule reports whether a rule with the given ID exists in any category.
func (kb *KnowledgeBase) HasRule(id string) bool {
	_, _, ok := kb.FindRule(id)
	return ok
}

// RuleCount returns the total number of rules across all categories.
func (kb *KnowledgeBase) RuleCount() int {
	n := 0
	for _, c := range RuleCategories {
		n += len(kb.CategoryRules(c))
	}
	return n
}

// CategoryCounts returns the number of rules per category.
func (kb *KnowledgeBase) CategoryCounts() map[RuleCategory]int {
	counts := make(map[RuleCategory]int, len(RuleCategories))
	for _, c := range RuleCategories {
		counts[c] = len(kb.CategoryRules(c))
	}
	return counts
}
