package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []entry {
	t.Helper()
	var out []entry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		out = append(out, e)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{" info ", InfoLevel},
		{"warn", WarnLevel},
		{"Warning", WarnLevel},
		{"ERROR", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}

	if Level(42).String() != "UNKNOWN" {
		t.Errorf("Level(42).String() = %q", Level(42).String())
	}
}

// TestJSONLogger_Entry tests the shape of a log line
func TestJSONLogger_Entry(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("move applied",
		Session("s-1"),
		NodeIndex(3),
		Community(2),
		Gain(0.125),
		Error(errors.New("boom")),
	)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	e := lines[0]
	if e.Level != "INFO" || e.Message != "move applied" {
		t.Errorf("entry = %+v", e)
	}
	if _, err := time.Parse(time.RFC3339Nano, e.Time); err != nil {
		t.Errorf("time %q is not RFC3339: %v", e.Time, err)
	}
	want := map[string]any{
		"session_id": "s-1",
		"node_index": float64(3),
		"community":  float64(2),
		"gain":       0.125,
		"error":      "boom",
	}
	for k, v := range want {
		if e.Fields[k] != v {
			t.Errorf("field %s = %v, want %v", k, e.Fields[k], v)
		}
	}
}

// TestJSONLogger_NoFields tests that empty field maps are omitted
func TestJSONLogger_NoFields(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).Info("plain")

	if strings.Contains(buf.String(), "fields") {
		t.Errorf("unexpected fields key in %s", buf.String())
	}
}

// TestJSONLogger_LevelFiltering tests that lower levels are dropped
func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Level != "WARN" || lines[1].Level != "ERROR" {
		t.Errorf("levels = %s, %s", lines[0].Level, lines[1].Level)
	}
}

// TestJSONLogger_With tests that child loggers carry their fields and share the level
func TestJSONLogger_With(t *testing.T) {
	var buf bytes.Buffer
	parent := NewJSONLogger(&buf, InfoLevel)
	child := parent.With(Component("session"), Session("abc"))

	child.Info("tick", Pass(2), Session("override"))
	parent.Info("no fields")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Fields["component"] != "session" || lines[0].Fields["pass"] != float64(2) {
		t.Errorf("child fields = %v", lines[0].Fields)
	}
	if lines[0].Fields["session_id"] != "override" {
		t.Errorf("call fields should override preset ones, got %v", lines[0].Fields["session_id"])
	}
	if lines[1].Fields != nil {
		t.Errorf("parent picked up child fields: %v", lines[1].Fields)
	}

	parent.SetLevel(ErrorLevel)
	if child.GetLevel() != ErrorLevel {
		t.Errorf("child level = %v, want ERROR", child.GetLevel())
	}
}

// TestDefaultLogger tests replacing the process-wide logger
func TestDefaultLogger(t *testing.T) {
	if DefaultLogger() == nil {
		t.Fatal("DefaultLogger returned nil")
	}

	var buf bytes.Buffer
	prev := DefaultLogger()
	SetDefaultLogger(NewJSONLogger(&buf, InfoLevel))
	defer SetDefaultLogger(prev)

	Info("hello", Node("A"))
	Warn("careful")
	ErrorLog("failed")

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0].Fields["node"] != "A" || lines[2].Level != "ERROR" {
		t.Errorf("lines = %+v", lines)
	}
}

// TestTimedOperation tests latency logging
func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	op := StartTimer(logger, "level run", LevelIndex(1))
	op.End(Ticks(12), Modularity(0.4))

	op = StartTimer(logger, "level run", LevelIndex(2))
	op.EndError(errors.New("cancelled"))

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Fields["ticks"] != float64(12) || lines[0].Fields["latency"] == nil {
		t.Errorf("End fields = %v", lines[0].Fields)
	}
	if lines[1].Level != "ERROR" || lines[1].Fields["error"] != "cancelled" || lines[1].Fields["level"] != float64(2) {
		t.Errorf("EndError entry = %+v", lines[1])
	}
}

// TestNopLogger tests that the no-op logger satisfies the interface
func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.Info("ignored")
	if l.With(Path("/x")) == nil {
		t.Error("With returned nil")
	}
	if l.GetLevel() != InfoLevel {
		t.Errorf("GetLevel = %v", l.GetLevel())
	}
}

func BenchmarkJSONLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("tick", NodeIndex(i), Gain(0.1))
	}
}
