// Package mcp provides an MCP (Model Context Protocol) server that exposes
// hb script analysis and the rule knowledge base as MCP tools for AI coding
// assistants.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/hpc-brain/internal/core"
	"github.com/valter-silva-au/hpc-brain/internal/storage"
	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// Server wraps hb services and exposes them as MCP tools.
type Server struct {
	server   *gomcp.Server
	analyzer core.Analyzer
	checkers []core.Checker
	store    storage.KnowledgeBaseStore
}

// NewServer creates a new MCP server with the given hb service dependencies.
// store may be nil if no knowledge base is configured.
func NewServer(analyzer core.Analyzer, checkers []core.Checker, store storage.KnowledgeBaseStore, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		analyzer: analyzer,
		checkers: checkers,
		store:    store,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "hb", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on the given transport, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type analyzeScriptInput struct {
	Path    string `json:"path" jsonschema:"required,path to the batch script to analyze"`
	Profile string `json:"profile,omitempty" jsonschema:"audience profile for feedback text (basic, medium, advanced). Defaults to medium."`
}

type findingOutput struct {
	RuleID     string  `json:"rule_id"`
	Title      string  `json:"title"`
	Message    string  `json:"message"`
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence"`
	AnchorLine *int    `json:"anchor_line,omitempty"`
	Source     string  `json:"source,omitempty"`
}

type analyzeScriptOutput struct {
	RunID        string          `json:"run_id"`
	Script       string          `json:"script"`
	ParseMode    string          `json:"parse_mode"`
	ElementCount int             `json:"element_count"`
	Findings     []findingOutput `json:"findings"`
	Annotations  []string        `json:"annotations,omitempty"`
}

type listRulesInput struct {
	Category string `json:"category,omitempty" jsonschema:"filter by knowledge-base category (lustre_rules, slurm_rules, workflow_patterns, general_logic_rules)"`
}

type ruleSummary struct {
	RuleID      string  `json:"rule_id"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	Provenance  string  `json:"provenance"`
	Source      string  `json:"source"`
	Confidence  float64 `json:"confidence"`
}

type listRulesOutput struct {
	Rules []ruleSummary `json:"rules"`
	Count int           `json:"count"`
}

type getRuleInput struct {
	RuleID string `json:"rule_id" jsonschema:"required,the unique rule identifier (e.g. LUSTRE-001 or LEARNED-1A2B3C4D)"`
}

type conditionOutput struct {
	Type        string `json:"type"`
	Value       string `json:"value"`
	Alternative bool   `json:"alternative,omitempty"`
}

type feedbackOutput struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type ruleOutput struct {
	RuleID            string                    `json:"rule_id"`
	Description       string                    `json:"description"`
	Severity          string                    `json:"severity"`
	TriggerConditions []conditionOutput         `json:"trigger_conditions"`
	Feedback          map[string]feedbackOutput `json:"feedback"`
	Confidence        float64                   `json:"confidence"`
	Provenance        string                    `json:"provenance"`
	Source            string                    `json:"source"`
	CreatedAt         string                    `json:"created_at"`
}

type kbStatsInput struct{}

type kbStatsOutput struct {
	Path        string         `json:"path"`
	Version     string         `json:"version"`
	LastUpdated string         `json:"last_updated"`
	Categories  map[string]int `json:"categories"`
	TotalRules  int            `json:"total_rules"`
	Backups     int            `json:"backups"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "analyze_script",
		Description: "Analyze a batch script: parse it into structured elements and evaluate every checker and knowledge-base rule against it. Returns the findings with severities and anchor lines.",
	}, s.handleAnalyzeScript)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_rules",
		Description: "List the deterministic rules the analyzer evaluates: authored checker rules and learned knowledge-base rules, with an optional category filter.",
	}, s.handleListRules)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_rule",
		Description: "Get a rule's full definition by ID, including trigger conditions and tiered feedback.",
	}, s.handleGetRule)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "kb_stats",
		Description: "Get knowledge base statistics: version, last update time, rule counts per category, and backup count.",
	}, s.handleKBStats)
}

// --- Tool handlers ---

func (s *Server) handleAnalyzeScript(ctx context.Context, _ *gomcp.CallToolRequest, input analyzeScriptInput) (*gomcp.CallToolResult, analyzeScriptOutput, error) {
	if input.Path == "" {
		return errorResult("path is required"), analyzeScriptOutput{Findings: []findingOutput{}}, nil
	}

	tier := models.TierMedium
	if input.Profile != "" {
		tier = models.AudienceTier(strings.ToLower(input.Profile))
		if !models.ValidAudienceTier(tier) {
			return errorResult(fmt.Sprintf("invalid profile %q: must be one of basic, medium, advanced", input.Profile)), analyzeScriptOutput{Findings: []findingOutput{}}, nil
		}
	}

	report, err := s.analyzer.Analyze(ctx, input.Path, tier)
	if err != nil {
		return errorResult(fmt.Sprintf("analyzing %s: %s", input.Path, err)), analyzeScriptOutput{Findings: []findingOutput{}}, nil
	}

	out := analyzeScriptOutput{
		RunID:        report.RunID,
		Script:       report.ScriptPath,
		ParseMode:    string(report.Mode),
		ElementCount: report.ElementCount,
		Findings:     make([]findingOutput, len(report.Findings)),
		Annotations:  report.Annotations,
	}
	for i, f := range report.Findings {
		out.Findings[i] = findingOutput{
			RuleID:     f.RuleID,
			Title:      f.Title,
			Message:    f.Message,
			Severity:   string(f.Severity),
			Confidence: f.Confidence,
			AnchorLine: f.AnchorLine,
			Source:     f.Source,
		}
	}

	return nil, out, nil
}

func (s *Server) handleListRules(_ context.Context, _ *gomcp.CallToolRequest, input listRulesInput) (*gomcp.CallToolResult, listRulesOutput, error) {
	rules, err := s.collectRules(input.Category)
	if err != nil {
		return errorResult(fmt.Sprintf("listing rules: %s", err)), listRulesOutput{Rules: []ruleSummary{}}, nil
	}

	out := listRulesOutput{
		Rules: make([]ruleSummary, len(rules)),
		Count: len(rules),
	}
	for i, r := range rules {
		out.Rules[i] = ruleSummary{
			RuleID:      r.rule.RuleID,
			Description: r.rule.Description,
			Severity:    string(r.rule.Severity),
			Provenance:  string(r.rule.Provenance),
			Source:      r.source,
			Confidence:  r.rule.Confidence,
		}
	}

	return nil, out, nil
}

func (s *Server) handleGetRule(_ context.Context, _ *gomcp.CallToolRequest, input getRuleInput) (*gomcp.CallToolResult, ruleOutput, error) {
	if input.RuleID == "" {
		return errorResult("rule_id is required"), ruleOutput{TriggerConditions: []conditionOutput{}, Feedback: map[string]feedbackOutput{}}, nil
	}

	rules, err := s.collectRules("")
	if err != nil {
		return errorResult(fmt.Sprintf("loading rules: %s", err)), ruleOutput{TriggerConditions: []conditionOutput{}, Feedback: map[string]feedbackOutput{}}, nil
	}

	for _, r := range rules {
		if r.rule.RuleID == input.RuleID {
			return nil, ruleToOutput(r.rule, r.source), nil
		}
	}

	return errorResult(fmt.Sprintf("rule %q not found", input.RuleID)), ruleOutput{TriggerConditions: []conditionOutput{}, Feedback: map[string]feedbackOutput{}}, nil
}

func (s *Server) handleKBStats(_ context.Context, _ *gomcp.CallToolRequest, _ kbStatsInput) (*gomcp.CallToolResult, kbStatsOutput, error) {
	if s.store == nil {
		return errorResult("knowledge base store not available"), kbStatsOutput{Categories: map[string]int{}}, nil
	}

	kb, err := s.store.Load()
	if err != nil {
		return errorResult(fmt.Sprintf("loading knowledge base: %s", err)), kbStatsOutput{Categories: map[string]int{}}, nil
	}

	backups, err := s.store.Backups()
	if err != nil {
		return errorResult(fmt.Sprintf("listing backups: %s", err)), kbStatsOutput{Categories: map[string]int{}}, nil
	}

	out := kbStatsOutput{
		Path:        s.store.Path(),
		Version:     kb.Version,
		LastUpdated: kb.LastUpdated.Format(time.RFC3339),
		Categories:  make(map[string]int),
		TotalRules:  kb.RuleCount(),
		Backups:     len(backups),
	}
	for c, n := range kb.CategoryCounts() {
		out.Categories[string(c)] = n
	}

	return nil, out, nil
}

// --- Helpers ---

// ruleEntry pairs a rule with the checker name or knowledge-base category
// that contributed it.
type ruleEntry struct {
	rule   models.RuleDefinition
	source string
}

func (s *Server) collectRules(category string) ([]ruleEntry, error) {
	var rules []ruleEntry

	if category == "" {
		for _, c := range s.checkers {
			for _, r := range c.Rules() {
				rules = append(rules, ruleEntry{rule: r, source: c.Name()})
			}
		}
	}

	if s.store == nil {
		return rules, nil
	}
	kb, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	for _, c := range models.RuleCategories {
		if category != "" && string(c) != category {
			continue
		}
		for _, r := range kb.CategoryRules(c) {
			rules = append(rules, ruleEntry{rule: r, source: string(c)})
		}
	}
	return rules, nil
}

func ruleToOutput(r models.RuleDefinition, source string) ruleOutput {
	out := ruleOutput{
		RuleID:            r.RuleID,
		Description:       r.Description,
		Severity:          string(r.Severity),
		TriggerConditions: make([]conditionOutput, len(r.TriggerConditions)),
		Feedback:          make(map[string]feedbackOutput, len(r.Feedback)),
		Confidence:        r.Confidence,
		Provenance:        string(r.Provenance),
		Source:            source,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
	}
	for i, c := range r.TriggerConditions {
		out.TriggerConditions[i] = conditionOutput{
			Type:        string(c.Type),
			Value:       c.Value,
			Alternative: c.Alternative,
		}
	}
	for tier, fb := range r.Feedback {
		out.Feedback[string(tier)] = feedbackOutput{Title: fb.Title, Message: fb.Message}
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
