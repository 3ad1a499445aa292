package storage

import (
	"testing"
	"time"
)

func TestBuildReportKey(t *testing.T) {
	when := time.Date(2026, 1, 15, 10, 30, 45, 0, time.UTC)
	key, err := BuildReportKey(when, "query_20260115_103045.txt")
	if err != nil {
		t.Fatalf("BuildReportKey() error = %v", err)
	}
	if key != "reports/date=2026-01-15/query_20260115_103045.txt" {
		t.Fatalf("key = %q", key)
	}
}

func TestBuildReportKeyStripsDirectories(t *testing.T) {
	when := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	key, err := BuildReportKey(when, "/tmp/output/query_20260115_000000.txt")
	if err != nil {
		t.Fatalf("BuildReportKey() error = %v", err)
	}
	if key != "reports/date=2026-01-15/query_20260115_000000.txt" {
		t.Fatalf("key = %q", key)
	}
}

func TestBuildReportKeyRejectsBadNames(t *testing.T) {
	when := time.Now()
	for _, name := range []string{"", "   ", "..", "report name.txt", "rep\x00ort.txt"} {
		if _, err := BuildReportKey(when, name); err == nil {
			t.Fatalf("BuildReportKey(%q) expected error", name)
		}
	}
}
