package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteCreatesTimestampedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	when := time.Date(2026, 1, 15, 10, 30, 45, 0, time.UTC)

	path, err := Write(dir, when, "report body\n")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if filepath.Base(path) != "query_20260115_103045.txt" {
		t.Fatalf("file name = %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "report body\n" {
		t.Fatalf("content = %q", string(data))
	}
}

func TestWriteFailsOnUnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	_, err := Write(filepath.Join(file, "output"), time.Now(), "body")
	if err == nil {
		t.Fatal("expected error when output dir cannot be created")
	}
	if !strings.Contains(err.Error(), "create output dir") {
		t.Fatalf("error = %v", err)
	}
}
