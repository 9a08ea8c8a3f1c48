package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"help", []string{"-h"}, flag.ErrHelp},
		{"missing api", []string{"-a", ":0"}, errUsage},
		{"unknown flag", []string{"-bogus"}, errUsage},
		{"extra argument", []string{"-api", "http://backend", "serve"}, errUsage},
		{"invalid locale", []string{"-api", "http://backend", "-locale", "not a tag"}, errUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(tt.args); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunReturnsSetupErrors(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv(tokenEnv, "")

	logPath := filepath.Join(t.TempDir(), "inventrack.log")
	err := run([]string{"-api", "ftp://backend", "-l", logPath})
	if err == nil || !strings.Contains(err.Error(), "invalid backend URL") {
		t.Fatalf("expected a backend URL error, got %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "no API token set") {
		t.Errorf("expected the log file to hold the startup warning, got %q", data)
	}
}

func TestRunLogFileError(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "missing", "inventrack.log")
	err := run([]string{"-api", "http://backend", "-l", logPath})
	if err == nil || !strings.Contains(err.Error(), "opening log file") {
		t.Fatalf("expected a log file error, got %v", err)
	}
}
