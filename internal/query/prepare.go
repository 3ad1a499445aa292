// Package query prepares SQL text for submission: loading it from disk,
// substituting named parameters, and screening out statements with write
// intent.
package query

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// NotFoundError reports a query input that named a .sql file which does not
// exist under the query directory.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("query file not found: %s", e.Path)
}

// WriteBlockedError reports the first denylisted keyword found by
// ValidateReadOnly.
type WriteBlockedError struct {
	Keyword string
}

func (e *WriteBlockedError) Error() string {
	return fmt.Sprintf("write operation detected: %s (only read-only statements are allowed)", e.Keyword)
}

// writeKeywords is the fixed denylist. Each entry carries a trailing space and
// is matched as a literal substring of the normalized query. The list is kept
// as-is for compatibility; expanding it is a policy decision, not a code one.
var writeKeywords = []string{
	"INSERT ",
	"UPDATE ",
	"DELETE ",
	"DROP ",
	"CREATE ",
	"ALTER ",
	"TRUNCATE ",
	"MERGE ",
	"UNLOAD ",
}

var placeholderPattern = regexp.MustCompile(`\$(?:\$|\{([A-Za-z_][A-Za-z0-9_]*)\}|([A-Za-z_][A-Za-z0-9_]*))`)

// Load resolves query input to SQL text. Input ending in ".sql" is treated as
// a file path relative to dir; anything else is returned unchanged as inline
// SQL.
func Load(dir, input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if !strings.HasSuffix(trimmed, ".sql") {
		return input, nil
	}

	path := trimmed
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Path: path}
		}
		return "", fmt.Errorf("read query file %q: %w", path, err)
	}
	return string(data), nil
}

// Substitute replaces $name and ${name} placeholders with values from params,
// and collapses the $$ escape to a literal $. Placeholders with no matching
// key are left verbatim, so a missing parameter never truncates or corrupts
// the query.
func Substitute(queryText string, params map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(queryText, func(match string) string {
		if match == "$$" {
			return "$"
		}
		groups := placeholderPattern.FindStringSubmatch(match)
		name := groups[1]
		if name == "" {
			name = groups[2]
		}
		if value, ok := params[name]; ok {
			return value
		}
		return match
	})
}

// ValidateReadOnly scans the query for write-intent keywords. Text after a
// "--" line comment marker is ignored, remaining lines are joined with single
// spaces and upper-cased, and each denylisted keyword is tested as a literal
// substring. This is a textual heuristic, not a SQL parser; it blocks the
// obvious mutating statements and nothing more.
func ValidateReadOnly(queryText string) error {
	var lines []string
	for _, line := range strings.Split(queryText, "\n") {
		line, _, _ = strings.Cut(line, "--")
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	normalized := strings.ToUpper(strings.Join(lines, " "))

	for _, keyword := range writeKeywords {
		if strings.Contains(normalized, keyword) {
			return &WriteBlockedError{Keyword: strings.TrimSpace(keyword)}
		}
	}
	return nil
}
