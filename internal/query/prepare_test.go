package query

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReturnsInlineSQLUnchanged(t *testing.T) {
	sql := "SELECT * FROM error_logs LIMIT 5"
	loaded, err := Load("queries", sql)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != sql {
		t.Fatalf("Load() = %q, want input unchanged", loaded)
	}
}

func TestLoadReadsSQLFile(t *testing.T) {
	dir := t.TempDir()
	want := "SELECT event_type, COUNT(*) FROM api_requests GROUP BY event_type\n"
	if err := os.WriteFile(filepath.Join(dir, "events_by_type.sql"), []byte(want), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loaded, err := Load(dir, "events_by_type.sql")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != want {
		t.Fatalf("Load() = %q, want %q", loaded, want)
	}
}

func TestLoadMissingFileReturnsNotFound(t *testing.T) {
	_, err := Load(t.TempDir(), "missing.sql")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Load() error = %v, want *NotFoundError", err)
	}
}

func TestSubstituteReplacesMatchedPlaceholders(t *testing.T) {
	got := Substitute("SELECT * FROM logs WHERE dt = '$date' AND account_id = '${account}'", map[string]string{
		"date":    "2026-01-15",
		"account": "acct_042",
	})
	want := "SELECT * FROM logs WHERE dt = '2026-01-15' AND account_id = 'acct_042'"
	if got != want {
		t.Fatalf("Substitute() = %q, want %q", got, want)
	}
}

func TestSubstituteLeavesUnmatchedPlaceholdersVerbatim(t *testing.T) {
	template := "SELECT * FROM logs WHERE dt = '$date' AND plan = '$plan'"
	got := Substitute(template, map[string]string{"date": "2026-01-15"})
	want := "SELECT * FROM logs WHERE dt = '2026-01-15' AND plan = '$plan'"
	if got != want {
		t.Fatalf("Substitute() = %q, want %q", got, want)
	}
}

func TestSubstituteWithNoParamsIsIdentity(t *testing.T) {
	template := "SELECT '$anything' FROM t"
	if got := Substitute(template, nil); got != template {
		t.Fatalf("Substitute() = %q, want %q", got, template)
	}
}

func TestSubstituteCollapsesDollarEscape(t *testing.T) {
	got := Substitute("SELECT * FROM t WHERE price = '$$12' AND dt = '$date'", map[string]string{"date": "2026-01-15"})
	want := "SELECT * FROM t WHERE price = '$12' AND dt = '2026-01-15'"
	if got != want {
		t.Fatalf("Substitute() = %q, want %q", got, want)
	}

	// The escape collapses with no params too.
	if got := Substitute("SELECT '$$' FROM t", nil); got != "SELECT '$' FROM t" {
		t.Fatalf("Substitute() = %q, want literal dollar", got)
	}
}

func TestSubstituteReplacesEveryOccurrence(t *testing.T) {
	got := Substitute("SELECT * FROM t WHERE a = '$v' OR b = '$v'", map[string]string{"v": "x"})
	want := "SELECT * FROM t WHERE a = 'x' OR b = 'x'"
	if got != want {
		t.Fatalf("Substitute() = %q, want %q", got, want)
	}
}

func TestValidateReadOnlyAllowsSelects(t *testing.T) {
	queries := []string{
		"SELECT * FROM error_logs WHERE dt = '2026-01-15'",
		"WITH recent AS (SELECT * FROM sessions) SELECT COUNT(*) FROM recent",
		"select lower(endpoint) from api_requests limit 10",
		// Column names that merely contain a keyword must pass.
		"SELECT deleted_at, created_at FROM accounts",
	}
	for _, q := range queries {
		if err := ValidateReadOnly(q); err != nil {
			t.Fatalf("ValidateReadOnly(%q) error = %v", q, err)
		}
	}
}

func TestValidateReadOnlyBlocksWriteKeywords(t *testing.T) {
	cases := []struct {
		sql     string
		keyword string
	}{
		{"INSERT INTO t VALUES (1)", "INSERT"},
		{"insert into t values (1)", "INSERT"},
		{"UPDATE t SET a = 1", "UPDATE"},
		{"DELETE FROM t WHERE a = 1", "DELETE"},
		{"DROP TABLE t", "DROP"},
		{"CREATE TABLE t (a INT)", "CREATE"},
		{"ALTER TABLE t ADD COLUMN b INT", "ALTER"},
		{"TRUNCATE TABLE t", "TRUNCATE"},
		{"MERGE INTO t USING s ON t.id = s.id", "MERGE"},
		{"UNLOAD (SELECT * FROM t) TO 's3://bucket/'", "UNLOAD"},
		{"SELECT 1;\nDROP TABLE t", "DROP"},
	}
	for _, tc := range cases {
		err := ValidateReadOnly(tc.sql)
		var blocked *WriteBlockedError
		if !errors.As(err, &blocked) {
			t.Fatalf("ValidateReadOnly(%q) error = %v, want *WriteBlockedError", tc.sql, err)
		}
		if blocked.Keyword != tc.keyword {
			t.Fatalf("ValidateReadOnly(%q) keyword = %q, want %q", tc.sql, blocked.Keyword, tc.keyword)
		}
	}
}

func TestValidateReadOnlyIgnoresCommentedKeywords(t *testing.T) {
	queries := []string{
		"SELECT * FROM t -- DROP TABLE t",
		"-- INSERT INTO audit VALUES (1)\nSELECT COUNT(*) FROM t",
		"SELECT a FROM t\n-- TRUNCATE TABLE t\nWHERE a > 1",
	}
	for _, q := range queries {
		if err := ValidateReadOnly(q); err != nil {
			t.Fatalf("ValidateReadOnly(%q) error = %v, want nil", q, err)
		}
	}
}

func TestValidateReadOnlyReportsFirstKeywordInListOrder(t *testing.T) {
	// Both DELETE and UPDATE appear; UPDATE precedes DELETE in the denylist.
	err := ValidateReadOnly("DELETE FROM t; UPDATE t SET a = 1")
	var blocked *WriteBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("error = %v, want *WriteBlockedError", err)
	}
	if blocked.Keyword != "UPDATE" {
		t.Fatalf("keyword = %q, want UPDATE", blocked.Keyword)
	}
}
