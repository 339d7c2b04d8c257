package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		name      string
		since     string
		until     string
		wantSince time.Time
		wantUntil time.Time
		wantErr   bool
	}{
		{
			name: "empty strings",
		},
		{
			name:      "valid range",
			since:     "2024-01-15T12:00:00Z",
			until:     "2024-01-16T00:00:00Z",
			wantSince: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			wantUntil: time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "invalid since format",
			since:   "2024-01-15",
			wantErr: true,
		},
		{
			name:    "invalid until format",
			until:   "not-a-date",
			wantErr: true,
		},
		{
			name:    "since after until",
			since:   "2024-01-16T00:00:00Z",
			until:   "2024-01-15T00:00:00Z",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			since, until, err := parseTimeRange(tt.since, tt.until)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTimeRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !since.Equal(tt.wantSince) || !until.Equal(tt.wantUntil) {
				t.Errorf("parseTimeRange() = %v, %v, want %v, %v", since, until, tt.wantSince, tt.wantUntil)
			}
		})
	}
}

func TestParseTarget(t *testing.T) {
	orig := parseLogsDir
	defer func() { parseLogsDir = orig }()

	t.Setenv("EFTLOG_LOGSDIR", "/from/env")
	parseLogsDir = ""

	if got, _ := parseTarget([]string{"/from/arg"}); got != "/from/arg" {
		t.Errorf("parseTarget(arg) = %q", got)
	}
	if got, _ := parseTarget(nil); got != "/from/env" {
		t.Errorf("parseTarget(env) = %q", got)
	}

	parseLogsDir = "/from/flag"
	if got, _ := parseTarget(nil); got != "/from/flag" {
		t.Errorf("parseTarget(flag) = %q", got)
	}

	parseLogsDir = ""
	t.Setenv("EFTLOG_LOGSDIR", "")
	if _, err := parseTarget(nil); err == nil {
		t.Error("parseTarget() expected error without any path")
	}
}

func TestRunParse(t *testing.T) {
	dir := t.TempDir()
	content := "2024-01-15 10:00:00.000|notifications|Got notification | GroupMatchUserLeave\n{\n\"Nickname\": \"Bob\"\n}\n"
	if err := os.WriteFile(filepath.Join(dir, "2024.01.15 notifications.log"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	origFormat, origStdout := parseFormat, os.Stdout
	defer func() { parseFormat, os.Stdout = origFormat, origStdout }()
	parseFormat = "pretty"

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	runErr := runParse(parseCmd, []string{dir})
	w.Close()
	os.Stdout = origStdout

	out, _ := io.ReadAll(r)
	r.Close()
	if runErr != nil {
		t.Fatalf("runParse() error = %v", runErr)
	}
	if !strings.Contains(string(out), "- Bob left the group") {
		t.Errorf("runParse() output = %q", out)
	}
}

func TestRunParse_InvalidFormat(t *testing.T) {
	orig := parseFormat
	defer func() { parseFormat = orig }()
	parseFormat = "xml"

	err := runParse(parseCmd, []string{t.TempDir()})
	if err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("runParse() error = %v, want invalid format", err)
	}
}
