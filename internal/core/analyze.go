package core

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valter-silva-au/hpc-brain/internal/script"
	"github.com/valter-silva-au/hpc-brain/internal/storage"
	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// Analyzer runs the parse -> evaluate -> report pipeline over one script.
type Analyzer interface {
	// Analyze reads the script, parses it, evaluates every checker and
	// knowledge-base rule, and synthesizes the report. Feedback text is
	// resolved for the given audience tier.
	Analyze(ctx context.Context, scriptPath string, tier models.AudienceTier) (*models.AnalysisReport, error)

	// AnalyzeAndLearn runs Analyze and feeds the run's findings back
	// through the extraction pipeline. The report is returned even when
	// the learning step fails so callers can still render it.
	AnalyzeAndLearn(ctx context.Context, scriptPath string, tier models.AudienceTier) (*models.AnalysisReport, *models.LearningResult, error)
}

type analyzer struct {
	parser        script.Parser
	checkers      []Checker
	store         storage.KnowledgeBaseStore
	learner       Learner
	events        EventLogger
	minConfidence float64
}

// NewAnalyzer creates an Analyzer. store, learner and events may be nil:
// without a store only checker rules run, and without a learner
// AnalyzeAndLearn degrades to Analyze.
func NewAnalyzer(parser script.Parser, checkers []Checker, store storage.KnowledgeBaseStore, learner Learner, events EventLogger, minConfidence float64) Analyzer {
	return &analyzer{
		parser:        parser,
		checkers:      checkers,
		store:         store,
		learner:       learner,
		events:        events,
		minConfidence: minConfidence,
	}
}

func (a *analyzer) Analyze(ctx context.Context, scriptPath string, tier models.AudienceTier) (*models.AnalysisReport, error) {
	report, _, err := a.run(ctx, scriptPath, tier)
	return report, err
}

func (a *analyzer) AnalyzeAndLearn(ctx context.Context, scriptPath string, tier models.AudienceTier) (*models.AnalysisReport, *models.LearningResult, error) {
	report, text, err := a.run(ctx, scriptPath, tier)
	if err != nil {
		return nil, nil, err
	}
	if a.learner == nil {
		return report, &models.LearningResult{}, nil
	}

	insights := make([]models.InsightRecord, 0, len(report.Findings))
	for _, f := range report.Findings {
		insights = append(insights, f.ToInsight())
	}

	result, err := a.learner.Learn(text, insights, false)
	if err != nil {
		return report, nil, fmt.Errorf("learning from run %s: %w", report.RunID, err)
	}
	return report, result, nil
}

// run is the shared pipeline body. It returns the script text alongside the
// report so the learning path does not read the file twice.
func (a *analyzer) run(ctx context.Context, scriptPath string, tier models.AudienceTier) (*models.AnalysisReport, string, error) {
	if !models.ValidAudienceTier(tier) {
		tier = models.TierMedium
	}

	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, "", fmt.Errorf("reading script: %w", err)
	}
	text := string(data)

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	runID := uuid.NewString()
	startedAt := time.Now().UTC()

	a.logEvent("run.started", map[string]any{
		"run_id":  runID,
		"script":  scriptPath,
		"profile": string(tier),
	})

	// 1. Parse. The fallback matcher makes this total over arbitrary input.
	parsed := a.parser.Parse(text)
	if parsed.Mode == models.ParseModeFallback {
		a.logEvent("parse.fallback", map[string]any{
			"run_id": runID,
			"script": scriptPath,
		})
	}

	// 2. Gather rules: checkers first, then the knowledge base. A store
	// that fails to load is recorded and the run continues on the
	// checker rules alone.
	entries := a.gatherRules(runID)

	// 3. Evaluate each rule against the element sequence.
	var findings []models.Finding
	for _, entry := range entries {
		if entry.rule.Confidence < a.minConfidence {
			continue
		}
		matched, anchor := EvaluateRule(parsed.Elements, &entry.rule)
		if !matched {
			continue
		}

		fb := entry.rule.FeedbackFor(tier)
		findings = append(findings, models.Finding{
			RuleID:     entry.rule.RuleID,
			Title:      fb.Title,
			Message:    fb.Message,
			Severity:   entry.rule.Severity,
			Confidence: entry.rule.Confidence,
			AnchorLine: anchor,
			Source:     entry.source,
		})

		ev := map[string]any{
			"run_id":   runID,
			"rule_id":  entry.rule.RuleID,
			"severity": string(entry.rule.Severity),
			"source":   entry.source,
		}
		if anchor != nil {
			ev["anchor_line"] = *anchor
		}
		a.logEvent("rule.matched", ev)
	}
	sortFindings(findings)

	report := &models.AnalysisReport{
		RunID:         runID,
		ScriptPath:    scriptPath,
		Mode:          parsed.Mode,
		Profile:       tier,
		ElementCount:  len(parsed.Elements),
		Findings:      findings,
		ToolsDetected: detectTools(parsed.Elements),
		Annotations:   formatAnnotations(parsed.Annotations),
		StartedAt:     startedAt,
		Duration:      time.Since(startedAt),
	}

	a.logEvent("run.completed", map[string]any{
		"run_id":      runID,
		"script":      scriptPath,
		"parse_mode":  string(parsed.Mode),
		"findings":    len(findings),
		"duration_ms": report.Duration.Milliseconds(),
	})

	return report, text, nil
}

// ruleEntry pairs a rule with the name of whatever contributed it, which
// becomes the finding's Source.
type ruleEntry struct {
	rule   models.RuleDefinition
	source string
}

func (a *analyzer) gatherRules(runID string) []ruleEntry {
	var entries []ruleEntry
	seen := make(map[string]bool)

	for _, c := range a.checkers {
		for _, r := range c.Rules() {
			if seen[r.RuleID] {
				continue
			}
			seen[r.RuleID] = true
			entries = append(entries, ruleEntry{rule: r, source: c.Name()})
		}
	}

	if a.store == nil {
		return entries
	}
	kb, err := a.store.Load()
	if err != nil {
		a.logEvent("kb.load_failed", map[string]any{
			"run_id": runID,
			"path":   a.store.Path(),
			"error":  err.Error(),
		})
		return entries
	}
	for _, c := range models.RuleCategories {
		for _, r := range kb.CategoryRules(c) {
			if seen[r.RuleID] {
				continue
			}
			seen[r.RuleID] = true
			entries = append(entries, ruleEntry{rule: r, source: string(c)})
		}
	}
	return entries
}

// sortFindings orders findings by severity (most severe first), then anchor
// line (absence findings last), then rule ID for a stable report.
func sortFindings(findings []models.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		si, sj := models.SeverityRank(findings[i].Severity), models.SeverityRank(findings[j].Severity)
		if si != sj {
			return si > sj
		}
		ai, aj := findings[i].AnchorLine, findings[j].AnchorLine
		switch {
		case ai != nil && aj != nil && *ai != *aj:
			return *ai < *aj
		case ai != nil && aj == nil:
			return true
		case ai == nil && aj != nil:
			return false
		}
		return findings[i].RuleID < findings[j].RuleID
	})
}

// detectTools returns the sorted set of leading words of the script's
// tool-classified commands.
func detectTools(elements []models.Element) []string {
	seen := make(map[string]bool)
	var tools []string
	for _, el := range elements {
		cmd, ok := el.(models.Command)
		if !ok || cmd.Category != models.CommandTool {
			continue
		}
		fields := strings.Fields(cmd.Text)
		if len(fields) == 0 || seen[fields[0]] {
			continue
		}
		seen[fields[0]] = true
		tools = append(tools, fields[0])
	}
	sort.Strings(tools)
	return tools
}

func formatAnnotations(annotations []models.Annotation) []string {
	var out []string
	for _, a := range annotations {
		out = append(out, fmt.Sprintf("line %d: %s", a.LineNumber, a.Message))
	}
	return out
}

// logEvent emits an event if an EventLogger is configured.
func (a *analyzer) logEvent(eventType string, data map[string]any) {
	if a.events != nil {
		_ = a.events.LogEvent(eventType, data)
	}
}
