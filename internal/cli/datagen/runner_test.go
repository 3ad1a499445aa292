package datagen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunWritesDatasetAndSummary(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "data")
	var stdout, stderr bytes.Buffer

	code := Run(context.Background(), []string{"-out", outDir}, Options{Stdout: &stdout, Stderr: &stderr})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr.String())
	}

	for _, table := range []string{"accounts", "users", "sessions", "api_requests", "error_logs"} {
		if !strings.Contains(stdout.String(), table+":") {
			t.Fatalf("stdout missing table %q:\n%s", table, stdout.String())
		}
		if _, err := os.Stat(filepath.Join(outDir, table)); err != nil {
			t.Fatalf("missing table dir %q: %v", table, err)
		}
	}
	if !strings.Contains(stdout.String(), "Scenario verification:") {
		t.Fatalf("stdout missing verification:\n%s", stdout.String())
	}
	if !strings.Contains(stdout.String(), "Silent dropout: acct_042 on 2026-01-15 = 0 requests") {
		t.Fatalf("stdout missing dropout line:\n%s", stdout.String())
	}
}

func TestRunRejectsBadFlags(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"-seed", "not-a-number"}, Options{Stderr: &stderr})
	if code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunFailsOnUnwritableOutput(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"-out", filepath.Join(file, "data")}, Options{Stderr: &stderr})
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "write dataset") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}
