// Package core contains the analysis logic for hpc-brain: rule validation
// and evaluation, pattern extraction, the authored domain checkers, the
// analyzer and learning pipelines, and configuration.
package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/hpc-brain/internal/script"
	"github.com/valter-silva-au/hpc-brain/pkg/models"
)

// ConfigManager loads and validates analyzer settings from the .hbconfig
// file in the base path.
type ConfigManager interface {
	Load() (*models.GlobalConfig, error)
	Validate(cfg *models.GlobalConfig) error

	// ResolvePath makes a configured path absolute by joining relative
	// paths onto the base path.
	ResolvePath(p string) string
}

// viperConfigManager implements ConfigManager using Viper for reading the
// YAML configuration file.
type viperConfigManager struct {
	// basePath is the directory where .hbconfig resides.
	basePath string
}

// NewConfigManager creates a ConfigManager that reads configuration relative
// to basePath.
func NewConfigManager(basePath string) ConfigManager {
	return &viperConfigManager{basePath: basePath}
}

// defaultGlobalConfig returns a GlobalConfig populated with the defaults
// used when .hbconfig is missing or leaves keys unset.
func defaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		KnowledgeBasePath: filepath.Join("knowledge", "knowledge_base.yaml"),
		EventLogPath:      "events.jsonl",
		DefaultProfile:    models.TierMedium,
		ParserTools:       script.DefaultParserTools,
		LargeFileTools:    DefaultLargeFileTools,
		SmallFileTools:    DefaultSmallFileTools,
		LearnEnabled:      false,
		MinConfidence:     0,
	}
}

// Load reads the .hbconfig file from the base path. If the file does not
// exist, the defaults are returned.
func (cm *viperConfigManager) Load() (*models.GlobalConfig, error) {
	cfg := defaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(".hbconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("knowledge_base", cfg.KnowledgeBasePath)
	v.SetDefault("event_log", cfg.EventLogPath)
	v.SetDefault("default_profile", string(cfg.DefaultProfile))
	v.SetDefault("parser_tools", cfg.ParserTools)
	v.SetDefault("large_file_tools", cfg.LargeFileTools)
	v.SetDefault("small_file_tools", cfg.SmallFileTools)
	v.SetDefault("learn_enabled", cfg.LearnEnabled)
	v.SetDefault("min_confidence", cfg.MinConfidence)
	v.SetDefault("alert_webhook", cfg.AlertWebhookURL)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .hbconfig: %w", err)
	}

	cfg.KnowledgeBasePath = v.GetString("knowledge_base")
	cfg.EventLogPath = v.GetString("event_log")
	cfg.DefaultProfile = models.AudienceTier(strings.ToLower(v.GetString("default_profile")))
	cfg.ParserTools = v.GetStringSlice("parser_tools")
	cfg.LargeFileTools = v.GetStringSlice("large_file_tools")
	cfg.SmallFileTools = v.GetStringSlice("small_file_tools")
	cfg.LearnEnabled = v.GetBool("learn_enabled")
	cfg.MinConfidence = v.GetFloat64("min_confidence")
	cfg.AlertWebhookURL = v.GetString("alert_webhook")

	return cfg, nil
}

// Validate checks the configuration for invalid values, collecting every
// problem into one error so a broken file is fixed in a single pass.
func (cm *viperConfigManager) Validate(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.KnowledgeBasePath == "" {
		errs = append(errs, "knowledge_base must not be empty")
	}
	if cfg.EventLogPath == "" {
		errs = append(errs, "event_log must not be empty")
	}
	if !models.ValidAudienceTier(cfg.DefaultProfile) {
		errs = append(errs, fmt.Sprintf(
			"default_profile %q is invalid, must be one of: basic, medium, advanced",
			cfg.DefaultProfile,
		))
	}
	if len(cfg.ParserTools) == 0 {
		errs = append(errs, "parser_tools must list at least one tool")
	}
	if len(cfg.LargeFileTools) == 0 {
		errs = append(errs, "large_file_tools must list at least one tool")
	}
	if len(cfg.SmallFileTools) == 0 {
		errs = append(errs, "small_file_tools must list at least one tool")
	}
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		errs = append(errs, fmt.Sprintf(
			"min_confidence %g is invalid, must be within [0, 1]",
			cfg.MinConfidence,
		))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (cm *viperConfigManager) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cm.basePath, p)
}
