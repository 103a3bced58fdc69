package core

import (
	"fmt"

	"github.com/valter-silva-au/hpc-brain/internal/storage"
	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// Learner runs the extraction pipeline over advisory insights and applies
// the accepted candidates to the knowledge store.
type Learner interface {
	// Learn extracts candidate rules from the insights, records the
	// candidate decisions as events, and applies accepted candidates to
	// the store. With dryRun set the store is left untouched and no
	// events are written.
	Learn(scriptText string, insights []models.InsightRecord, dryRun bool) (*models.LearningResult, error)
}

type learner struct {
	extractor PatternExtractor
	store     storage.KnowledgeBaseStore
	events    EventLogger
}

// NewLearner creates a Learner. events may be nil.
func NewLearner(extractor PatternExtractor, store storage.KnowledgeBaseStore, events EventLogger) Learner {
	return &learner{
		extractor: extractor,
		store:     store,
		events:    events,
	}
}

func (l *learner) Learn(scriptText string, insights []models.InsightRecord, dryRun bool) (*models.LearningResult, error) {
	result := l.extractor.Extract(scriptText, insights)

	if dryRun {
		return result, nil
	}

	for _, r := range result.Accepted {
		l.logEvent("candidate.accepted", map[string]any{
			"rule_id":    r.RuleID,
			"severity":   string(r.Severity),
			"confidence": r.Confidence,
		})
	}
	for _, rej := range result.Rejected {
		l.logEvent("candidate.rejected", map[string]any{
			"rule_id": rej.RuleID,
			"pattern": rej.Pattern,
			"reason":  rej.Reason,
		})
	}

	if len(result.Accepted) == 0 {
		return result, nil
	}

	kb, err := l.store.Update(result.Accepted)
	if err != nil {
		l.logEvent("kb.update_failed", map[string]any{
			"path":  l.store.Path(),
			"error": err.Error(),
		})
		return result, fmt.Errorf("applying %d accepted candidate(s): %w", len(result.Accepted), err)
	}

	l.logEvent("kb.updated", map[string]any{
		"path":     l.store.Path(),
		"version":  kb.Version,
		"accepted": len(result.Accepted),
		"rules":    kb.RuleCount(),
	})

	return result, nil
}

// logEvent emits an event if an EventLogger is configured.
func (l *learner) logEvent(eventType string, data map[string]any) {
	if l.events != nil {
		_ = l.events.LogEvent(eventType, data)
	}
}
