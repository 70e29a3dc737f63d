// Package logging includes tests for the zap logger helpers.
package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// TestNewDevelopmentLogger confirms the development logger builds and logs.
func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New("debug", true)
	if err != nil {
		t.Fatalf("New(debug, true) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

// TestNewProductionLogger ensures the production logger configuration succeeds.
func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New("info", false)
	if err != nil {
		t.Fatalf("New(info, false) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("production logger ready")
}

func TestNewNoneVerbosityIsNoop(t *testing.T) {
	t.Parallel()

	logger, err := New("none", false)
	if err != nil {
		t.Fatalf("New(none, false) error = %v", err)
	}
	logger.Info("should not appear anywhere")
}

func TestLevelFromVerbosity(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"info":    zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for input, want := range cases {
		got, err := LevelFromVerbosity(input)
		if err != nil {
			t.Fatalf("LevelFromVerbosity(%q) error = %v", input, err)
		}
		if got != want {
			t.Errorf("LevelFromVerbosity(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := LevelFromVerbosity("bogus"); err == nil {
		t.Error("expected error for unknown verbosity")
	}
}
