package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	e, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.Jobs != 1 || e.LogLevel != "warn" || e.LogFormat != "console" || !e.OTelEnabled {
		t.Fatalf("unexpected defaults %+v", e)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MICROSIM_THREADS", "6")
	t.Setenv("MICROSIM_STORE", "/tmp/runs.db")
	t.Setenv("MICROSIM_OTEL_ENABLED", "false")
	e, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.Threads != 6 || e.Store != "/tmp/runs.db" || e.OTelEnabled {
		t.Fatalf("overrides not applied: %+v", e)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("MICROSIM_JOBS", "many")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
