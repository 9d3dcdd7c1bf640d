package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}
	if cfg.Pretty {
		t.Error("Expected default pretty to be false")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{LevelError, zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel}, // Should default to Info
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: buf,
	})

	logger := NewLogger("ratelimit")
	logger.Info().Str("client_key", "10.0.0.1:/products").Msg("request admitted")

	output := buf.String()
	if !strings.Contains(output, "ratelimit") {
		t.Errorf("Expected output to contain component name, got %q", output)
	}
	if !strings.Contains(output, "request admitted") {
		t.Errorf("Expected output to contain message, got %q", output)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  LevelWarn,
		Pretty: false,
		Output: buf,
	})

	logger := NewLogger("cache")

	// Below warn level, must be filtered
	logger.Debug().Msg("cache hit")
	logger.Info().Msg("entry stored")

	// Warn level and above, must appear
	logger.Warn().Msg("store unreachable, bypassing cache")
	logger.Error().Msg("listener failed")

	output := buf.String()

	if strings.Contains(output, "cache hit") {
		t.Error("Debug message should be filtered out at Warn level")
	}
	if strings.Contains(output, "entry stored") {
		t.Error("Info message should be filtered out at Warn level")
	}
	if !strings.Contains(output, "store unreachable") {
		t.Error("Warn message should be included at Warn level")
	}
	if !strings.Contains(output, "listener failed") {
		t.Error("Error message should be included at Warn level")
	}
}
