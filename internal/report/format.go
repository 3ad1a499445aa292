// Package report renders a collected result table plus execution metadata
// into a fixed-width text report and persists it to the output directory.
package report

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/athenaq/athenaq/internal/exec"
)

// maxColumnWidth caps any rendered column; longer values are truncated.
const maxColumnWidth = 200

// Metadata is the execution context echoed into the report header.
type Metadata struct {
	GeneratedAt time.Time
	Database    string
	ExecutionID string
	Stats       exec.Stats
}

// Format renders the report. It is a pure function of its inputs: same table,
// query, and metadata always produce identical text.
func Format(table exec.Table, queryText string, meta Metadata) string {
	lines := []string{
		"Athena Query Results",
		strings.Repeat("=", 70),
		fmt.Sprintf("Timestamp: %s", meta.GeneratedAt.Format(time.RFC3339)),
		fmt.Sprintf("Database: %s", meta.Database),
		fmt.Sprintf("Execution ID: %s", meta.ExecutionID),
		fmt.Sprintf("Data scanned: %.2f MB", float64(meta.Stats.ScannedBytes)/1024/1024),
		fmt.Sprintf("Execution time: %dms", meta.Stats.ExecutionMillis),
		strings.Repeat("=", 70),
		"",
		"Query:",
		strings.Repeat("-", 40),
		strings.TrimSpace(queryText),
		strings.Repeat("-", 40),
		"",
		fmt.Sprintf("Results (%d rows):", len(table.Rows)),
		"",
	}

	if len(table.Rows) == 0 {
		lines = append(lines, "(no results)")
		return strings.Join(lines, "\n")
	}

	widths := columnWidths(table)

	headerFields := make([]string, len(table.Columns))
	for i, column := range table.Columns {
		headerFields[i] = pad(column, widths[i])
	}
	header := strings.Join(headerFields, " | ")
	lines = append(lines, header, strings.Repeat("-", utf8.RuneCountInString(header)))

	for _, row := range table.Rows {
		fields := make([]string, len(row))
		for i, value := range row {
			fields[i] = pad(value, widths[i])
		}
		lines = append(lines, strings.Join(fields, " | "))
	}

	return strings.Join(lines, "\n")
}

// columnWidths returns, per column, the larger of the label length and the
// longest cell, capped at maxColumnWidth. Widths count characters, not bytes,
// so multi-byte cells line up.
func columnWidths(table exec.Table) []int {
	widths := make([]int, len(table.Columns))
	for i, column := range table.Columns {
		widths[i] = utf8.RuneCountInString(column)
	}
	for _, row := range table.Rows {
		for i, value := range row {
			if i >= len(widths) {
				continue
			}
			if n := utf8.RuneCountInString(value); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for i := range widths {
		if widths[i] > maxColumnWidth {
			widths[i] = maxColumnWidth
		}
	}
	return widths
}

// pad truncates value to width characters, then left-justifies it in a
// width-sized field. Truncation is on rune boundaries; the output stays valid
// UTF-8.
func pad(value string, width int) string {
	runes := []rune(value)
	if len(runes) > width {
		runes = runes[:width]
	}
	return string(runes) + strings.Repeat(" ", width-len(runes))
}
