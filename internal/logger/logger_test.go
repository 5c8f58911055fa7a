package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		_ = Configure(LevelInfo)
	})
	return &buf
}

func TestConfigureFiltersBelowMinimumLevel(t *testing.T) {
	buf := captureOutput(t)
	if err := Configure(LevelWarn); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	Debug("debug %d", 1)
	Info("info %d", 2)
	Warn("warn %d", 3)
	Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Fatalf("expected debug and info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "warn 3") || !strings.Contains(out, "error 4") {
		t.Fatalf("expected warn and error lines, got %q", out)
	}
}

func TestConfigureDebugEnablesEverything(t *testing.T) {
	buf := captureOutput(t)
	if err := Configure(" DEBUG "); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	Debug("trace line")
	if !strings.Contains(buf.String(), "trace line") {
		t.Fatalf("expected debug line, got %q", buf.String())
	}
}

func TestConfigureRejectsUnknownLevel(t *testing.T) {
	if err := Configure("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestRequestLogIncludesMethodPathAndStatus(t *testing.T) {
	buf := captureOutput(t)

	RequestLog("POST", "/provision", "10.0.0.1", 303, 12*time.Millisecond)

	out := buf.String()
	for _, want := range []string{"POST", "/provision", "10.0.0.1", "303", "12ms"} {
		if !strings.Contains(out, want) {
			t.Fatalf("request log %q missing %q", out, want)
		}
	}
}

func TestFatalLogsAtErrorLevelAndExits(t *testing.T) {
	buf := captureOutput(t)
	if err := Configure(LevelError); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	code := -1
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = os.Exit })

	Fatal("error: %v", "boom")

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if out := buf.String(); !strings.Contains(out, "[ERROR]") || !strings.Contains(out, "error: boom") {
		t.Fatalf("unexpected output %q", out)
	}
}
