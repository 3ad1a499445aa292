package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Write persists the report as a single UTF-8 text file named with the run
// timestamp, creating the output directory when needed. It returns the path
// of the written file.
func Write(dir string, generatedAt time.Time, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir %q: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("query_%s.txt", generatedAt.Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report %q: %w", path, err)
	}
	return path, nil
}
