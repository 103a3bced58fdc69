package cli

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/valter-silva-au/hpc-brain/internal/observability"
	"github.com/valter-silva-au/hpc-brain/internal/storage"
	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

func TestDashboardModel_Init(t *testing.T) {
	m := newDashboardModel()

	if m.activePanel != panelRules {
		t.Errorf("expected activePanel = %d, got %d", panelRules, m.activePanel)
	}
	if !m.loading {
		t.Error("expected loading = true on init")
	}
	if m.ruleCounts == nil {
		t.Error("expected ruleCounts to be initialized")
	}

	// Init should return a command (loadData).
	cmd := m.Init()
	if cmd == nil {
		t.Error("expected Init to return a non-nil command")
	}
}

func TestDashboardModel_KeyQ(t *testing.T) {
	m := newDashboardModel()
	m.loading = false

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected tea.Quit command from q key")
	}

	// Verify the command produces a quit message.
	msg := cmd()
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg, got %T", msg)
	}

	// Model should be unchanged.
	dm := updated.(dashboardModel)
	if dm.activePanel != panelRules {
		t.Errorf("expected activePanel unchanged, got %d", dm.activePanel)
	}
}

func TestDashboardModel_KeyEsc(t *testing.T) {
	m := newDashboardModel()
	m.loading = false

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected tea.Quit command from esc key")
	}
	msg := cmd()
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg, got %T", msg)
	}
}

func TestDashboardModel_KeyTab(t *testing.T) {
	m := newDashboardModel()

	// Tab should cycle forward.
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if cmd != nil {
		t.Error("expected no command from tab key")
	}
	dm := updated.(dashboardModel)
	if dm.activePanel != panelMetrics {
		t.Errorf("expected panel %d after first tab, got %d", panelMetrics, dm.activePanel)
	}

	// Tab again.
	updated, _ = dm.Update(tea.KeyMsg{Type: tea.KeyTab})
	dm = updated.(dashboardModel)
	if dm.activePanel != panelAlerts {
		t.Errorf("expected panel %d after second tab, got %d", panelAlerts, dm.activePanel)
	}

	// Tab wraps around.
	updated, _ = dm.Update(tea.KeyMsg{Type: tea.KeyTab})
	dm = updated.(dashboardModel)
	if dm.activePanel != panelRules {
		t.Errorf("expected panel %d after wrap, got %d", panelRules, dm.activePanel)
	}
}

func TestDashboardModel_KeyShiftTab(t *testing.T) {
	m := newDashboardModel()

	// Shift+Tab should cycle backward (wrap from 0 to panelCount-1).
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if cmd != nil {
		t.Error("expected no command from shift+tab")
	}
	dm := updated.(dashboardModel)
	if dm.activePanel != panelAlerts {
		t.Errorf("expected panel %d after shift+tab from 0, got %d", panelAlerts, dm.activePanel)
	}
}

func TestDashboardModel_KeyR(t *testing.T) {
	m := newDashboardModel()
	m.loading = false

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	dm := updated.(dashboardModel)
	if !dm.loading {
		t.Error("expected loading = true after pressing r")
	}
	if cmd == nil {
		t.Error("expected a command (loadData) from r key")
	}
}

func TestDashboardModel_DataLoaded(t *testing.T) {
	m := newDashboardModel()

	msg := dataLoadedMsg{
		kbVersion: "1.0.3",
		ruleCounts: map[string]int{
			"lustre_rules": 2,
			"slurm_rules":  1,
		},
		metrics: &metricsSnapshot{
			runs:               8,
			fallbackRuns:       2,
			rulesMatched:       12,
			candidatesAccepted: 3,
			kbUpdates:          3,
			eventCount:         42,
		},
		alerts: []alertSnapshot{
			{severity: "high", message: "knowledge base failing", time: "2026-01-15 10:30 UTC"},
			{severity: "low", message: "error findings piling up", time: "2026-01-15 10:30 UTC"},
		},
	}

	updated, cmd := m.Update(msg)
	if cmd != nil {
		t.Error("expected no command after dataLoadedMsg")
	}

	dm := updated.(dashboardModel)
	if dm.loading {
		t.Error("expected loading = false after data loaded")
	}
	if dm.err != nil {
		t.Errorf("expected no error, got: %v", dm.err)
	}
	if dm.kbVersion != "1.0.3" {
		t.Errorf("expected kbVersion = 1.0.3, got %q", dm.kbVersion)
	}
	if dm.ruleCounts["lustre_rules"] != 2 {
		t.Errorf("expected lustre_rules = 2, got %d", dm.ruleCounts["lustre_rules"])
	}
	if dm.metricsData == nil {
		t.Fatal("expected metricsData to be set")
	}
	if dm.metricsData.runs != 8 {
		t.Errorf("expected runs = 8, got %d", dm.metricsData.runs)
	}
	if dm.metricsData.eventCount != 42 {
		t.Errorf("expected eventCount = 42, got %d", dm.metricsData.eventCount)
	}
	if len(dm.alerts) != 2 {
		t.Errorf("expected 2 alerts, got %d", len(dm.alerts))
	}
}

func TestDashboardModel_DataLoadedError(t *testing.T) {
	m := newDashboardModel()

	msg := dataLoadedMsg{
		err: errors.New("trace unreadable"),
	}

	updated, _ := m.Update(msg)
	dm := updated.(dashboardModel)
	if dm.loading {
		t.Error("expected loading = false after error")
	}
	if dm.err == nil {
		t.Fatal("expected error to be set")
	}
	if dm.err.Error() != "trace unreadable" {
		t.Errorf("expected error 'trace unreadable', got %q", dm.err.Error())
	}
}

func TestDashboardModel_WindowResize(t *testing.T) {
	m := newDashboardModel()

	updated, cmd := m.Update(tea.WindowSizeMsg{Width: 200, Height: 50})
	if cmd != nil {
		t.Error("expected no command from window resize")
	}
	dm := updated.(dashboardModel)
	if dm.width != 200 {
		t.Errorf("expected width = 200, got %d", dm.width)
	}
	if dm.height != 50 {
		t.Errorf("expected height = 50, got %d", dm.height)
	}
}

func TestDashboardModel_ViewLoading(t *testing.T) {
	m := newDashboardModel()
	m.width = 100
	m.height = 40

	view := m.View()
	if !strings.Contains(view, "Loading data") {
		t.Error("expected loading view to contain 'Loading data'")
	}
}

func TestDashboardModel_ViewWithData(t *testing.T) {
	m := newDashboardModel()
	m.width = 130
	m.height = 40
	m.loading = false
	m.kbVersion = "1.0.1"
	m.ruleCounts = map[string]int{
		"lustre_rules": 2,
		"slurm_rules":  1,
	}
	m.metricsData = &metricsSnapshot{
		runs:         5,
		rulesMatched: 3,
		eventCount:   20,
	}
	m.alerts = []alertSnapshot{
		{severity: "high", message: "knowledge base failing"},
	}

	view := m.View()
	if !strings.Contains(view, "Knowledge Base") {
		t.Error("expected view to contain 'Knowledge Base' panel")
	}
	if !strings.Contains(view, "Metrics") {
		t.Error("expected view to contain 'Metrics' panel")
	}
	if !strings.Contains(view, "Alerts") {
		t.Error("expected view to contain 'Alerts' panel")
	}
	if !strings.Contains(view, "lustre_rules") {
		t.Error("expected view to contain 'lustre_rules' category")
	}
}

func TestDashboardModel_ViewVerticalLayout(t *testing.T) {
	m := newDashboardModel()
	m.width = 80 // Less than 120, should use vertical layout.
	m.height = 40
	m.loading = false
	m.ruleCounts = map[string]int{"general_logic_rules": 1}

	view := m.View()
	if !strings.Contains(view, "Knowledge Base") {
		t.Error("expected vertical layout view to contain 'Knowledge Base'")
	}
}

func TestDashboardLoadData(t *testing.T) {
	origStore := Store
	origMetrics := MetricsCalc
	origAlerts := AlertEngine
	defer func() {
		Store = origStore
		MetricsCalc = origMetrics
		AlertEngine = origAlerts
	}()

	Store = storage.NewKnowledgeBaseStore(filepath.Join(t.TempDir(), "kb.yaml"))
	if _, err := Store.Update([]models.RuleDefinition{
		learnedRule("LEARNED-EEEE5555", "Pattern involving lfs setstripe usage"),
		learnedRule("LEARNED-FFFF6666", "Pattern involving sbatch memory request"),
	}); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	now := time.Now().UTC()
	MetricsCalc = &metricsCalcMock{
		calculateFn: func(since time.Time) (*observability.Metrics, error) {
			return &observability.Metrics{
				Runs:               3,
				FallbackRuns:       1,
				RulesMatched:       5,
				CandidatesAccepted: 2,
				KBUpdates:          2,
				EventCount:         15,
				OldestEvent:        &now,
				NewestEvent:        &now,
				FindingsBySeverity: map[string]int{"warning": 4, "error": 1},
			}, nil
		},
	}

	AlertEngine = &alertEngineMock{
		evaluateFn: func() ([]observability.Alert, error) {
			return []observability.Alert{
				{
					ID:          "fallback-rate",
					Severity:    observability.SeverityMedium,
					Message:     "fallback parser rate above threshold",
					TriggeredAt: now,
				},
				{
					ID:          "kb-failures",
					Severity:    observability.SeverityHigh,
					Message:     "knowledge base failing",
					TriggeredAt: now,
				},
			}, nil
		},
	}

	msg := loadData()
	data, ok := msg.(dataLoadedMsg)
	if !ok {
		t.Fatalf("expected dataLoadedMsg, got %T", msg)
	}
	if data.err != nil {
		t.Fatalf("unexpected error: %v", data.err)
	}
	if data.kbVersion != "1.0.1" {
		t.Errorf("expected kbVersion = 1.0.1, got %q", data.kbVersion)
	}
	if data.ruleCounts["lustre_rules"] != 1 {
		t.Errorf("expected lustre_rules = 1, got %d", data.ruleCounts["lustre_rules"])
	}
	if data.ruleCounts["slurm_rules"] != 1 {
		t.Errorf("expected slurm_rules = 1, got %d", data.ruleCounts["slurm_rules"])
	}
	if data.metrics == nil {
		t.Fatal("expected metrics to be set")
	}
	if data.metrics.runs != 3 {
		t.Errorf("expected runs = 3, got %d", data.metrics.runs)
	}
	if len(data.alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(data.alerts))
	}
	// Alerts are ordered most severe first.
	if data.alerts[0].severity != "high" {
		t.Errorf("expected first alert severity 'high', got %q", data.alerts[0].severity)
	}
}

func TestDashboardCmd_NilMetricsCalc(t *testing.T) {
	origMetrics := MetricsCalc
	defer func() { MetricsCalc = origMetrics }()
	MetricsCalc = nil

	err := dashboardCmd.RunE(dashboardCmd, nil)
	if err == nil {
		t.Fatal("expected error when MetricsCalc is nil")
	}
	if !strings.Contains(err.Error(), "metrics calculator not initialized") {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}
