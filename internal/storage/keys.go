package storage

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var fileNamePattern = regexp.MustCompile(`^[A-Za-z0-9._=-]+$`)

// BuildReportKey places a report file under a date partition, e.g.
// reports/date=2026-01-15/query_20260115_103045.txt.
func BuildReportKey(generatedAt time.Time, fileName string) (string, error) {
	base := filepath.Base(strings.TrimSpace(fileName))
	if base == "." || base == ".." || base == string(filepath.Separator) || !fileNamePattern.MatchString(base) {
		return "", fmt.Errorf("invalid report file name: %q", fileName)
	}
	return fmt.Sprintf("reports/date=%s/%s", generatedAt.UTC().Format("2006-01-02"), base), nil
}
