package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf, ServiceName: "pagestack-test"})

	log.Info("document converted", "pages", 3)

	entry := logLine(t, &buf)
	if entry["msg"] != "document converted" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["service"] != "pagestack-test" {
		t.Errorf("expected service attribute, got: %v", entry["service"])
	}
	if entry["pages"] != float64(3) {
		t.Errorf("expected pages=3, got: %v", entry["pages"])
	}
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "text", Output: &buf})

	log.Info("hello")

	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("expected text format output, got: %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info("should be dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info log to be filtered, got: %s", buf.String())
	}

	log.Warn("should be kept")
	if buf.Len() == 0 {
		t.Error("expected warn log to pass the filter")
	}
}

func TestWithJobID(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.WithJobID("job-123").Info("processing")

	entry := logLine(t, &buf)
	if entry["job_id"] != "job-123" {
		t.Errorf("expected job_id attribute, got: %v", entry["job_id"])
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithJobID(ctx, "job-9")

	log.FromContext(ctx).Info("handled")

	entry := logLine(t, &buf)
	if entry["request_id"] != "req-1" {
		t.Errorf("expected request_id from context, got: %v", entry["request_id"])
	}
	if entry["job_id"] != "job-9" {
		t.Errorf("expected job_id from context, got: %v", entry["job_id"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"warning": "WARN",
		"bogus":   "INFO",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
