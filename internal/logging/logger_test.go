package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	component := NewComponentLogger(logger, "reconcile")
	component.Info("fixed sample", String("name", "kick.wav"), Int("size", 1000))

	out := buf.String()
	if !strings.Contains(out, "reconcile: fixed sample") {
		t.Fatalf("missing component prefix: %q", out)
	}
	if !strings.Contains(out, "name=kick.wav") || !strings.Contains(out, "size=1000") {
		t.Fatalf("missing attrs: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("non-terminal writer should not be colorized: %q", out)
	}
}

func TestJSONHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Warn("missing sample", String("path", "/tmp/a.wav"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["level"] != "warn" {
		t.Fatalf("unexpected level: %v", record["level"])
	}
	if record["msg"] != "missing sample" {
		t.Fatalf("unexpected message: %v", record["msg"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")
	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Fatalf("warn should pass: %q", out)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("nothing happens", Error(nil))
}
