package config

// LoggingConfig controls zap's output and the audit trail's verbosity.
type LoggingConfig struct {
	Level      string          `yaml:"level"`       // debug, info, warn, error
	Format     string          `yaml:"format"`       // json or console
	File       string          `yaml:"file"`         // empty means stderr only
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
}

// IsCategoryEnabled reports whether a named audit category should be logged.
// DebugMode is a master switch: when on, every category is enabled
// regardless of its individual toggle.
func (l *LoggingConfig) IsCategoryEnabled(category string) bool {
	if l.DebugMode {
		return true
	}
	if l.Categories == nil {
		return true
	}
	enabled, ok := l.Categories[category]
	if !ok {
		return true
	}
	return enabled
}
