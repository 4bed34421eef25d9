package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText("info", &buf)
	logger.Info("round finished", "round_id", 7)
	output := buf.String()
	if !strings.Contains(output, "round finished") || !strings.Contains(output, "round_id=7") {
		t.Errorf("unexpected text output: %s", output)
	}
}

func TestNewFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewFormat("json", "info", &buf))

	Info("seed executed", "result", "collision", "loss", 0.0)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log output: %v", err)
	}
	if entry["msg"] != "seed executed" {
		t.Errorf("Expected msg 'seed executed', got '%v'", entry["msg"])
	}
	if entry["result"] != "collision" {
		t.Errorf("Expected result 'collision', got '%v'", entry["result"])
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		logFunc  func(string, ...any)
		logMsg   string
		expected bool
	}{
		{"Debug when debug level", "debug", Debug, "debug message", true},
		{"Debug when info level", "info", Debug, "debug message", false},
		{"Warn when info level", "info", Warn, "warn message", true},
		{"Info when error level", "error", Info, "info message", false},
		{"Error when error level", "error", Error, "error message", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetDefault(NewFormat("text", tt.logLevel, &buf))

			tt.logFunc(tt.logMsg)
			output := buf.String()

			if tt.expected && !strings.Contains(output, tt.logMsg) {
				t.Errorf("Expected log output to contain '%s', got: %s", tt.logMsg, output)
			}
			if !tt.expected && strings.Contains(output, tt.logMsg) {
				t.Errorf("Expected log output NOT to contain '%s', but it did: %s", tt.logMsg, output)
			}
		})
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New("info", &buf))

	With("campaign_id", "abc").Info("campaign started")

	output := buf.String()
	if !strings.Contains(output, "campaign_id") || !strings.Contains(output, "abc") {
		t.Errorf("Expected campaign attributes in output, got: %s", output)
	}
}
