// SPDX-License-Identifier: AGPL-3.0-only
package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Output: &buf, Level: Warn})

	logger.Debugf("debug message")
	logger.Infof("info message")
	logger.Warnf("warn message")
	logger.Errorf("error message")
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("Expected debug/info to be filtered at warn level, got %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("Expected warn/error to be emitted, got %q", out)
	}
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Output: &buf, Level: Info})

	logger.WithField("course", "Intro to Go").Infof("indexed")
	_ = logger.Sync()

	out := buf.String()
	if !strings.Contains(out, "course") || !strings.Contains(out, "Intro to Go") {
		t.Errorf("Expected field in output, got %q", out)
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := FileLogger(path, Info)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	logger.Infof("hello file")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Errorf("Expected log line in file, got %q", string(data))
	}
}

func TestDefaultLogger(t *testing.T) {
	if GetDefaultLogger() == nil {
		t.Fatal("Expected a default logger to be created on demand")
	}

	var buf bytes.Buffer
	custom := New(Options{Output: &buf, Level: Debug})
	SetDefaultLogger(custom)
	defer SetDefaultLogger(nil)

	if GetDefaultLogger() != custom {
		t.Error("Expected the installed default logger to be returned")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   Debug,
		"info":    Info,
		"warn":    Warn,
		"warning": Warn,
		"error":   Error,
		"fatal":   Fatal,
		"bogus":   Info,
		"":        Info,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("Expected ParseLevel(%q) = %v, got %v", in, want, got)
		}
	}
}
