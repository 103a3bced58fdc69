package models

// GlobalConfig holds analyzer settings read from .hbconfig via Viper.
// Paths are relative to the resolved base path unless absolute.
type GlobalConfig struct {
	KnowledgeBasePath string       `yaml:"knowledge_base" mapstructure:"knowledge_base"`
	EventLogPath      string       `yaml:"event_log" mapstructure:"event_log"`
	DefaultProfile    AudienceTier `yaml:"default_profile" mapstructure:"default_profile"`
	ParserTools       []string     `yaml:"parser_tools" mapstructure:"parser_tools"`
	LargeFileTools    []string     `yaml:"large_file_tools" mapstructure:"large_file_tools"`
	SmallFileTools    []string     `yaml:"small_file_tools" mapstructure:"small_file_tools"`
	LearnEnabled      bool         `yaml:"learn_enabled" mapstructure:"learn_enabled"`
	MinConfidence     float64      `yaml:"min_confidence" mapstructure:"min_confidence"`
	AlertWebhookURL   string       `yaml:"alert_webhook" mapstructure:"alert_webhook"`
}
