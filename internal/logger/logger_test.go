package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetup_ReturnsJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	if l == nil {
		t.Fatal("expected non-nil logger")
	}

	l.Info("auto post completed", slog.String("category", "anime"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}

	if entry["msg"] != "auto post completed" {
		t.Errorf("msg = %q, want %q", entry["msg"], "auto post completed")
	}
	if entry["category"] != "anime" {
		t.Errorf("category = %q, want %q", entry["category"], "anime")
	}
}

func TestSetup_IncludesTimeAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Warn("publish retry")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}

	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in JSON log output")
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %q, want %q", entry["level"], "WARN")
	}
}

func TestSetup_LevelFromEnv(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		wantDebug bool
	}{
		{"デフォルトではdebugは抑制される", "", false},
		{"LOG_LEVEL=debugでdebugが出力される", "debug", true},
		{"LOG_LEVEL=errorではdebugは抑制される", "error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.env)

			var buf bytes.Buffer
			l := Setup(&buf)
			l.Debug("debug message")

			got := buf.Len() > 0
			if got != tt.wantDebug {
				t.Errorf("debug output emitted = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	SetupDefault(&buf)

	slog.Default().Info("global test", slog.String("post_id", "123"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v\nraw: %s", err, buf.String())
	}

	if entry["msg"] != "global test" {
		t.Errorf("msg = %q, want %q", entry["msg"], "global test")
	}
	if entry["post_id"] != "123" {
		t.Errorf("post_id = %q, want %q", entry["post_id"], "123")
	}
}
