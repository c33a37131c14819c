// Package auditlog provides Artisan's structured logging and domain audit trail.
//
// Two concerns live here, matching the teacher's split between a top-level
// zap logger and a separate JSON-lines audit file: general operational
// logging goes through a shared *zap.Logger, while domain events (generation
// attempts, model promotions, training-job transitions, staleness
// detections) are additionally recorded as newline-delimited JSON facts any
// downstream tool can tail and grep.
package auditlog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/localforge/artisan/internal/config"
)

// NewLogger builds a *zap.Logger from a LoggingConfig, matching the
// teacher's cmd/nerd setup: JSON in production, console in debug mode.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.DebugMode {
		level = zapcore.DebugLevel
	} else if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "console" || cfg.DebugMode {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	if cfg.File != "" {
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, cfg.File)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// NewNopLogger returns a logger that discards everything, for tests.
func NewNopLogger() *zap.Logger {
	return zap.NewNop()
}
