package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("athenaq", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.Athena.Region != "us-east-1" {
		t.Fatalf("Athena.Region = %q", cfg.Athena.Region)
	}
	if cfg.Athena.Database != "telemetry" {
		t.Fatalf("Athena.Database = %q", cfg.Athena.Database)
	}
	if cfg.Athena.Workgroup != "primary" {
		t.Fatalf("Athena.Workgroup = %q", cfg.Athena.Workgroup)
	}
	if cfg.Runner.PollInterval != time.Second {
		t.Fatalf("Runner.PollInterval = %v", cfg.Runner.PollInterval)
	}
	if cfg.Runner.MaxWait != 0 {
		t.Fatalf("Runner.MaxWait = %v, want 0 (unbounded)", cfg.Runner.MaxWait)
	}
	if cfg.Runner.PageSize != 1000 {
		t.Fatalf("Runner.PageSize = %d", cfg.Runner.PageSize)
	}
	if cfg.Query.Dir != "queries" {
		t.Fatalf("Query.Dir = %q", cfg.Query.Dir)
	}
	if cfg.Report.OutputDir != "output" {
		t.Fatalf("Report.OutputDir = %q", cfg.Report.OutputDir)
	}
	if cfg.Artifact.Enabled {
		t.Fatal("Artifact.Enabled should default to false")
	}
	if cfg.History.Enabled {
		t.Fatal("History.Enabled should default to false")
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Observability.LogJSON {
		t.Fatal("LogJSON should default to false in dev")
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"ATHENAQ_PROFILE": "prod"})
	cfg, err := Load("athenaq", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Observability.LogJSON {
		t.Fatal("LogJSON should default to true in prod")
	}
	if !cfg.Artifact.UseSSL {
		t.Fatal("Artifact.UseSSL should default to true in prod")
	}
	if cfg.Artifact.AutoCreateBucket {
		t.Fatal("Artifact.AutoCreateBucket should default to false in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"ATHENAQ_DATABASE":        "prod_telemetry",
		"ATHENAQ_WORKGROUP":       "analytics",
		"ATHENAQ_OUTPUT_LOCATION": "s3://results-bucket/query-results/",
		"ATHENAQ_POLL_INTERVAL":   "250ms",
		"ATHENAQ_MAX_WAIT":        "5m",
		"ATHENAQ_PAGE_SIZE":       "500",
		"ATHENAQ_LOG_LEVEL":       "error",
	})
	cfg, err := Load("athenaq", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Athena.Database != "prod_telemetry" {
		t.Fatalf("Athena.Database = %q", cfg.Athena.Database)
	}
	if cfg.Athena.Workgroup != "analytics" {
		t.Fatalf("Athena.Workgroup = %q", cfg.Athena.Workgroup)
	}
	if cfg.Athena.OutputLocation != "s3://results-bucket/query-results/" {
		t.Fatalf("Athena.OutputLocation = %q", cfg.Athena.OutputLocation)
	}
	if cfg.Runner.PollInterval != 250*time.Millisecond {
		t.Fatalf("Runner.PollInterval = %v", cfg.Runner.PollInterval)
	}
	if cfg.Runner.MaxWait != 5*time.Minute {
		t.Fatalf("Runner.MaxWait = %v", cfg.Runner.MaxWait)
	}
	if cfg.Runner.PageSize != 500 {
		t.Fatalf("Runner.PageSize = %d", cfg.Runner.PageSize)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"invalid profile", map[string]string{"ATHENAQ_PROFILE": "staging"}},
		{"invalid duration", map[string]string{"ATHENAQ_POLL_INTERVAL": "fast"}},
		{"zero poll interval", map[string]string{"ATHENAQ_POLL_INTERVAL": "0s"}},
		{"page size too large", map[string]string{"ATHENAQ_PAGE_SIZE": "1001"}},
		{"page size zero", map[string]string{"ATHENAQ_PAGE_SIZE": "0"}},
		{"invalid log level", map[string]string{"ATHENAQ_LOG_LEVEL": "verbose"}},
		{"artifact without bucket", map[string]string{"ATHENAQ_ARTIFACT_ENABLED": "true", "ATHENAQ_ARTIFACT_BUCKET": ""}},
		{"history without dsn", map[string]string{"ATHENAQ_HISTORY_ENABLED": "true"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load("athenaq", mapLookup(tc.env)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadRequiresLookup(t *testing.T) {
	if _, err := Load("athenaq", nil); err == nil {
		t.Fatal("expected error for nil lookup")
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
