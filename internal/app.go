// Package internal provides the App struct that wires all components of the
// hpc-brain analyzer together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/hpc-brain/internal/cli"
	"github.com/valter-silva-au/hpc-brain/internal/core"
	"github.com/valter-silva-au/hpc-brain/internal/observability"
	"github.com/valter-silva-au/hpc-brain/internal/script"
	"github.com/valter-silva-au/hpc-brain/internal/storage"
	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// App holds all service dependencies for the hpc-brain analyzer.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigManager
	Config    *models.GlobalConfig

	// Parsing
	Parser script.Parser

	// Core services
	Checkers  []core.Checker
	Extractor core.PatternExtractor
	Learner   core.Learner
	Analyzer  core.Analyzer
	Reporter  core.Reporter

	// Storage layer
	Store storage.KnowledgeBaseStore

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of the hpc-brain analyzer.
// basePath is the root directory where all data is stored (typically
// ~/hpc-brain or the directory containing .hbconfig).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigManager(basePath)
	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.Validate(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Parsing ---
	app.Parser = script.NewParser(cfg.ParserTools)

	// --- Domain checkers ---
	app.Checkers = []core.Checker{
		core.NewLustreChecker(cfg.LargeFileTools, cfg.SmallFileTools),
		core.NewSlurmChecker(),
	}

	// --- Storage layer ---
	app.Store = storage.NewKnowledgeBaseStore(app.ConfigMgr.ResolvePath(cfg.KnowledgeBasePath))

	// --- Observability ---
	eventLogPath := app.ConfigMgr.ResolvePath(cfg.EventLogPath)
	if err := os.MkdirAll(filepath.Dir(eventLogPath), 0o755); err == nil {
		app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
		if err != nil {
			// Non-fatal: disable observability if log can't be created.
			app.EventLog = nil
		}
	}
	var events core.EventLogger
	if app.EventLog != nil {
		events = observability.NewEventWriter(app.EventLog)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
		app.AlertEngine = observability.NewAlertEngine(app.MetricsCalc, observability.DefaultAlertThresholds())
	}
	if cfg.AlertWebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.AlertWebhookURL)
	}

	// --- Core services ---
	app.Extractor = core.NewPatternExtractor()
	app.Learner = core.NewLearner(app.Extractor, app.Store, events)
	app.Analyzer = core.NewAnalyzer(app.Parser, app.Checkers, app.Store, app.Learner, events, cfg.MinConfidence)
	app.Reporter = core.NewReporter()

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Analyzer = app.Analyzer
	cli.Learner = app.Learner
	cli.Reporter = app.Reporter
	cli.Checkers = app.Checkers
	cli.Store = app.Store
	cli.DefaultProfile = cfg.DefaultProfile
	cli.LearnByDefault = cfg.LearnEnabled

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the base path for the hpc-brain data directory.
// It checks for the HB_BASE_PATH env var, then walks up from the current
// directory looking for a .hbconfig file, then falls back to ~/hpc-brain.
func ResolveBasePath() string {
	if base := os.Getenv("HB_BASE_PATH"); base != "" {
		return base
	}

	dir, err := os.Getwd()
	if err == nil {
		for {
			if _, statErr := os.Stat(filepath.Join(dir, ".hbconfig")); statErr == nil {
				return dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		cwd, _ := os.Getwd()
		return cwd
	}
	return filepath.Join(home, "hpc-brain")
}
