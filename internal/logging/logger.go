// Package logging provides zap logger helpers.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger at the level named by verbosity: "debug", "info",
// "warning", "error", or "none" (which returns a no-op logger). An empty
// string defaults to "info". development switches between the colorized
// console encoder and the JSON production encoder.
func New(verbosity string, development bool) (*zap.Logger, error) {
	if strings.EqualFold(verbosity, "none") {
		return zap.NewNop(), nil
	}
	level, err := LevelFromVerbosity(verbosity)
	if err != nil {
		return nil, err
	}

	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("build dev logger: %w", err)
		}
		return logger, nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = false
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build prod logger: %w", err)
	}
	return logger, nil
}

// LevelFromVerbosity maps the CLI's --verbosity values to a zap level.
func LevelFromVerbosity(verbosity string) (zapcore.Level, error) {
	switch strings.ToLower(verbosity) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("logging: unknown verbosity %q", verbosity)
	}
}
