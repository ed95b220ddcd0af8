package cli

import (
	"strings"
	"testing"
	"time"
)

func TestRootCommandOptionsFromEnv(t *testing.T) {
	t.Setenv("SMA_ATTACH", "true")
	t.Setenv("SMA_VERBOSE", "1")
	t.Setenv("SMA_LOG_FORMAT", "json")
	t.Setenv("SMA_GRACE", "3s")
	t.Setenv("SMA_METRICS_FILE", "/tmp/sma.prom")

	_, ctx := newRootCommand()
	if !ctx.attach {
		t.Fatalf("expected attach from env")
	}
	if !ctx.verbose {
		t.Fatalf("expected verbose from env")
	}
	if ctx.logFormat != logFormatJSON {
		t.Fatalf("expected json log format, got %q", ctx.logFormat)
	}
	if ctx.grace != 3*time.Second {
		t.Fatalf("expected grace 3s, got %s", ctx.grace)
	}
	if ctx.metricsFile != "/tmp/sma.prom" {
		t.Fatalf("unexpected metrics file %q", ctx.metricsFile)
	}
}

func TestRootCommandIgnoresInvalidEnv(t *testing.T) {
	t.Setenv("SMA_ATTACH", "maybe")
	t.Setenv("SMA_GRACE", "-1s")

	_, ctx := newRootCommand()
	if ctx.attach {
		t.Fatalf("expected attach to stay disabled")
	}
	if ctx.grace != 0 {
		t.Fatalf("expected zero grace, got %s", ctx.grace)
	}
	if ctx.logFormat != logFormatText {
		t.Fatalf("expected text log format, got %q", ctx.logFormat)
	}
}

func TestRootCommandFlagsOverrideEnv(t *testing.T) {
	t.Setenv("SMA_LOG_FORMAT", "json")

	spawner := &fakeSpawner{}
	stdout, _, err := executeRoot(t, withFakeSpawner(spawner), "--log-format", "text", "start", "a")
	if err != nil {
		t.Fatalf("start returned error: %v", err)
	}
	if strings.HasPrefix(stdout, "{") {
		t.Fatalf("expected text output, got %q", stdout)
	}
}

func TestRootCommandRejectsUnknownLogFormat(t *testing.T) {
	_, _, err := executeRoot(t, nil, "--log-format", "xml", "start", "a")
	if err == nil || !strings.Contains(err.Error(), "unsupported log format") {
		t.Fatalf("expected log format error, got %v", err)
	}
}

func TestRootCommandVerboseShowsDebugEvents(t *testing.T) {
	quiet, _, err := executeRoot(t, withFakeSpawner(&fakeSpawner{}), "start", "a")
	if err != nil {
		t.Fatalf("start returned error: %v", err)
	}
	loud, _, err := executeRoot(t, withFakeSpawner(&fakeSpawner{}), "-v", "start", "a")
	if err != nil {
		t.Fatalf("start returned error: %v", err)
	}
	if strings.Contains(quiet, "spawning") {
		t.Fatalf("debug event printed without verbose: %q", quiet)
	}
	if !strings.Contains(loud, "spawning a") {
		t.Fatalf("expected debug event with verbose: %q", loud)
	}
}
