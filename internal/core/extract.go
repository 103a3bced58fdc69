package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

const (
	// minMessageLength filters out insight messages too short to carry an
	// extractable pattern.
	minMessageLength = 10

	// Pattern length bounds, both exclusive.
	minPatternLength = 5
	maxPatternLength = 100

	// contextHeadBytes is how much of the analyzed script is preserved in
	// the learning result for diagnostics.
	contextHeadBytes = 200

	// keywordWindowBefore/After bound the context window taken around a
	// vocabulary keyword when no code span or command shape was found.
	keywordWindowBefore = 20
	keywordWindowAfter  = 40

	// learnedConfidence is the fixed confidence assigned to synthesized
	// candidates.
	learnedConfidence = 0.8
)

// inlineCodePattern captures spans delimited by backticks.
var inlineCodePattern = regexp.MustCompile("`([^`]+)`")

// commandShapePattern matches a word followed by a non-space token, the
// heuristic shape of a command with an argument.
var commandShapePattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9_-]+\s+[^\s]+`)

// hpcKeywords is the fallback vocabulary scanned when a message yields no
// code span or command shape.
var hpcKeywords = []string{
	"sbatch", "lfs", "setstripe", "module", "srun", "mpirun", "export", "ulimit",
}

// PatternExtractor turns advisory insight records into candidate rules.
// Candidates are validated before being returned; rejected ones are kept in
// the result with their reasons. The extractor holds no state between
// batches, so the returned result is the complete outcome of one call.
type PatternExtractor interface {
	Extract(scriptText string, insights []models.InsightRecord) *models.LearningResult
}

type patternExtractor struct{}

// NewPatternExtractor creates a PatternExtractor.
func NewPatternExtractor() PatternExtractor {
	return &patternExtractor{}
}

func (e *patternExtractor) Extract(scriptText string, insights []models.InsightRecord) *models.LearningResult {
	result := &models.LearningResult{Context: truncateRaw(scriptText, contextHeadBytes)}

	// First occurrence of a pattern wins across the whole batch, so repeated
	// mentions never produce duplicate rule IDs in one result.
	seen := make(map[string]bool)
	for _, ins := range insights {
		if len(ins.Message) <= minMessageLength {
			continue
		}
		for _, pattern := range extractPatterns(ins.Message) {
			if seen[pattern] {
				continue
			}
			seen[pattern] = true

			candidate := newCandidate(pattern, ins)
			if err := ValidateCandidate(&candidate); err != nil {
				result.Rejected = append(result.Rejected, models.RejectedCandidate{
					RuleID:  candidate.RuleID,
					Pattern: pattern,
					Reason:  err.Error(),
				})
				continue
			}
			result.Accepted = append(result.Accepted, candidate)
		}
	}
	return result
}

// extractPatterns pulls candidate pattern strings out of one insight
// message. Sources are tiered: explicit inline-code spans carry the author's
// intent and win outright; the command-shape heuristic runs only when no
// span survives the length filter; keyword context windows are the last
// resort. The tiers keep one marked-up mention from fanning out into a
// candidate per incidental word pair.
func extractPatterns(message string) []string {
	var spans []string
	for _, m := range inlineCodePattern.FindAllStringSubmatch(message, -1) {
		spans = append(spans, m[1])
	}
	if patterns := filterPatterns(spans); len(patterns) > 0 {
		return patterns
	}
	if patterns := filterPatterns(commandShapePattern.FindAllString(message, -1)); len(patterns) > 0 {
		return patterns
	}
	return keywordWindows(message)
}

// filterPatterns trims each pattern and keeps the ones within the length
// bounds.
func filterPatterns(raw []string) []string {
	var patterns []string
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if len(p) > minPatternLength && len(p) < maxPatternLength {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// keywordWindows returns a trimmed context window around the first
// occurrence of each vocabulary keyword present in the message. The window
// is measured in runes: lowering the message for the search can change rune
// byte lengths, so byte offsets into the lowered text do not transfer back.
func keywordWindows(message string) []string {
	lower := strings.ToLower(message)
	runes := []rune(message)
	var windows []string
	for _, kw := range hpcKeywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		at := utf8.RuneCountInString(lower[:idx])
		start := max(at-keywordWindowBefore, 0)
		end := min(at+keywordWindowAfter, len(runes))
		if w := strings.TrimSpace(string(runes[start:end])); w != "" {
			windows = append(windows, w)
		}
	}
	return windows
}

// newCandidate synthesizes a learned rule for one extracted pattern. The
// insight's severity overrides the Warning default when set; everything else
// is derived from the pattern so the candidate is deterministic.
func newCandidate(pattern string, ins models.InsightRecord) models.RuleDefinition {
	severity := models.SeverityWarning
	if ins.Severity != "" {
		severity = ins.Severity
	}
	fix := suggestFix(pattern)
	return models.RuleDefinition{
		RuleID:      learnedRuleID(pattern),
		Description: "Learned pattern: " + truncate(pattern, 50),
		Severity:    severity,
		TriggerConditions: []models.TriggerCondition{
			{Type: models.CondCommandContains, Value: pattern},
		},
		Feedback:   learnedFeedback(pattern, fix),
		Confidence: learnedConfidence,
		Provenance: models.ProvenanceLearned,
		CreatedAt:  time.Now().UTC(),
	}
}

// learnedRuleID derives a stable rule ID from the pattern content. The same
// pattern always hashes to the same ID, so re-learning is idempotent.
func learnedRuleID(pattern string) string {
	sum := sha256.Sum256([]byte(pattern))
	return "LEARNED-" + strings.ToUpper(hex.EncodeToString(sum[:4]))
}

// learnedFeedback fills the three mandatory audience tiers by template
// substitution of the pattern and its suggested fix.
func learnedFeedback(pattern, fix string) map[models.AudienceTier]models.FeedbackEntry {
	return map[models.AudienceTier]models.FeedbackEntry{
		models.TierBasic: {
			Title: fmt.Sprintf("Potential issue detected: %s", truncate(pattern, 30)),
			Message: fmt.Sprintf(
				"The script contains a pattern that might cause issues: '%s'. Consider reviewing this section.",
				pattern),
		},
		models.TierMedium: {
			Title: fmt.Sprintf("Pattern '%s' detected", pattern),
			Message: fmt.Sprintf(
				"The pattern '%s' was flagged by a previous analysis as potentially problematic. The recommended approach is %s.",
				pattern, fix),
		},
		models.TierAdvanced: {
			Title: fmt.Sprintf("Suboptimal pattern: %s", pattern),
			Message: fmt.Sprintf(
				"The pattern '%s' may lead to performance or configuration issues. Consider %s for optimal results.",
				pattern, fix),
		},
	}
}

// suggestFix picks a remediation hint from a fixed decision table keyed on
// substrings of the lowered pattern.
func suggestFix(pattern string) string {
	lower := strings.ToLower(pattern)
	switch {
	case strings.Contains(lower, "setstripe") && !strings.Contains(lower, "-c 1"):
		return "reviewing the stripe count against the expected file sizes (lfs setstripe -c 1 for small files, wider stripes for large files)"
	case strings.Contains(lower, "set -e"):
		return "enabling strict error handling so the job stops at the first failing command"
	case strings.Contains(lower, "module load"):
		return "pinning module versions so runs stay reproducible"
	case strings.Contains(lower, "sbatch"):
		return "reviewing the resource directives against the expected workload"
	default:
		return "reviewing this pattern against HPC best practices"
	}
}

// truncate cuts s to at most n bytes without splitting a rune, appending an
// ellipsis when shortened.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// truncateRaw cuts s to at most n bytes without decoration.
func truncateRaw(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
