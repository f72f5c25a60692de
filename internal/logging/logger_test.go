package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewLogger(t *testing.T) {
	t.Run("creates log file in log directory", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := NewLogger(dir, LevelDebug)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if _, err := os.Stat(filepath.Join(dir, FileName)); os.IsNotExist(err) {
			t.Errorf("log file was not created")
		}
	})

	t.Run("writes to stderr when logDir is empty", func(t *testing.T) {
		logger, err := NewLogger("", LevelInfo)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		if err := logger.Close(); err != nil {
			t.Errorf("Close on stderr logger returned %v", err)
		}
	})
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := decodeLines(t, buf.Bytes())
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines at WARN, got %d", len(lines))
	}
	if lines[0]["level"] != "WARN" || lines[1]["level"] != "ERROR" {
		t.Errorf("unexpected levels: %v, %v", lines[0]["level"], lines[1]["level"])
	}
}

func TestSetLevelAppliesToChildren(t *testing.T) {
	var buf bytes.Buffer
	root := New(&buf, LevelError)
	child := root.WithRun("run-1").WithAccount(2)

	child.Info("hidden")
	root.SetLevel("info")
	child.Info("visible")

	lines := decodeLines(t, buf.Bytes())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line after SetLevel, got %d", len(lines))
	}
	if lines[0]["msg"] != "visible" {
		t.Errorf("msg = %v, want visible", lines[0]["msg"])
	}
	if root.Level() != "INFO" {
		t.Errorf("Level() = %q, want INFO", root.Level())
	}
}

func TestContextPropagation(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelDebug)

	logger.WithRun("run-abc").WithAccount(7).With("executor", "browser").Info("claim succeeded", "delay", "6m")

	lines := decodeLines(t, buf.Bytes())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	entry := lines[0]
	if entry["run_id"] != "run-abc" {
		t.Errorf("run_id = %v", entry["run_id"])
	}
	if entry["account_id"] != float64(7) {
		t.Errorf("account_id = %v", entry["account_id"])
	}
	if entry["executor"] != "browser" {
		t.Errorf("executor = %v", entry["executor"])
	}
	if entry["delay"] != "6m" {
		t.Errorf("delay = %v", entry["delay"])
	}
}

func TestWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(&buf, LevelDebug)
	_ = parent.With("k", "v")
	parent.Info("plain")

	lines := decodeLines(t, buf.Bytes())
	if _, ok := lines[0]["k"]; ok {
		t.Error("parent logger picked up child attribute")
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Error("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	child := logger.WithRun("r")
	if err := logger.Close(); err != nil {
		t.Fatalf("first Close() = %v", err)
	}
	if err := child.Close(); err != nil {
		t.Errorf("Close() via child after root close = %v", err)
	}
}

func TestConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			acct := logger.WithAccount(i + 1)
			for range 20 {
				acct.Info("tick")
			}
		})
	}
	wg.Wait()
	logger.Close()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatal(err)
	}
	if got := len(decodeLines(t, data)); got != 200 {
		t.Errorf("got %d lines, want 200", got)
	}
}
