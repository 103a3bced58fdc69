package cli

import (
	"github.com/valter-silva-au/hpc-brain/internal/core"
	"github.com/valter-silva-au/hpc-brain/internal/observability"
	"github.com/valter-silva-au/hpc-brain/internal/storage"
	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	// BasePath is the resolved hpc-brain data directory.
	BasePath string

	Analyzer core.Analyzer
	Learner  core.Learner
	Reporter core.Reporter
	Checkers []core.Checker
	Store    storage.KnowledgeBaseStore

	// DefaultProfile is the audience tier used when --profile is not given.
	DefaultProfile = models.TierMedium

	// LearnByDefault makes analyze feed its findings back into the
	// knowledge base without an explicit --learn flag.
	LearnByDefault bool
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)
