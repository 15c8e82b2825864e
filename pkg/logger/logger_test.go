package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"galleryscraper/pkg/config"
)

func TestNew(t *testing.T) {
	log, err := New(&config.LoggingConfig{Level: "debug"})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if log == nil {
		t.Fatal("Expected a logger instance")
	}
	if log.GetZerolog() == nil {
		t.Error("Expected access to the underlying zerolog instance")
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New(&config.LoggingConfig{Level: "shout"}); err == nil {
		t.Error("Expected error for unknown log level")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
		valid    bool
	}{
		{"debug", zerolog.DebugLevel, true},
		{"info", zerolog.InfoLevel, true},
		{"WARN", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"disabled", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := parseLogLevel(test.input)
			if test.valid && err != nil {
				t.Errorf("Expected valid level, got error %v", err)
			}
			if !test.valid && err == nil {
				t.Error("Expected error for invalid level")
			}
			if test.valid && level != test.expected {
				t.Errorf("Expected level %v, got %v", test.expected, level)
			}
		})
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.txt")

	log, err := New(&config.LoggingConfig{Level: "info", File: path})
	if err != nil {
		t.Fatalf("Failed to create logger with file output: %v", err)
	}

	log.WithField("target", "https://example.com/q").Info("navigation started")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "navigation started") {
		t.Error("Expected log message in file")
	}
	if !strings.Contains(string(data), "https://example.com/q") {
		t.Error("Expected field value in file")
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	base, err := New(&config.LoggingConfig{Level: "info"})
	if err != nil {
		t.Fatal(err)
	}

	child := base.WithField("k", "v")
	if child == base {
		t.Error("WithField must return a derived logger, not the receiver")
	}

	// Deriving two children from the same base must not cross-contaminate
	a := base.WithField("a", 1)
	b := base.WithField("b", 2)
	if a == b {
		t.Error("Derived loggers must be independent")
	}
}

func TestGetLoggerDefault(t *testing.T) {
	globalLogger = nil
	log := GetLogger()
	if log == nil {
		t.Fatal("Expected a default logger when uninitialized")
	}
}
