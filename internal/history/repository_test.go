package history

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestInsertRun(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)
	started := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	completed := started.Add(3 * time.Second)

	mock.ExpectQuery(regexp.QuoteMeta(`
INSERT INTO query_run (execution_id, database_name, workgroup, sql_text, state, reason, row_count, scanned_bytes, execution_millis, report_path, started_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING run_id`)).
		WithArgs("exec-abc-123", "telemetry", "primary", "SELECT 1", "SUCCEEDED", "", int64(3), int64(1048576), int64(842), "output/query_20260115_103000.txt", started, completed).
		WillReturnRows(sqlmock.NewRows([]string{"run_id"}).AddRow(int64(7)))

	record, err := repo.InsertRun(context.Background(), InsertRunInput{
		ExecutionID:     "exec-abc-123",
		Database:        "telemetry",
		Workgroup:       "primary",
		SQL:             "SELECT 1",
		State:           "SUCCEEDED",
		RowCount:        3,
		ScannedBytes:    1048576,
		ExecutionMillis: 842,
		ReportPath:      "output/query_20260115_103000.txt",
		StartedAt:       started,
		CompletedAt:     completed,
	})
	if err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}
	if record.RunID != 7 {
		t.Fatalf("RunID = %d", record.RunID)
	}
	if record.ExecutionID != "exec-abc-123" {
		t.Fatalf("ExecutionID = %q", record.ExecutionID)
	}
	assertSQLMock(t, mock)
}

func TestListRecentRuns(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)
	now := time.Now().UTC()

	columns := []string{"run_id", "execution_id", "database_name", "workgroup", "sql_text", "state", "reason", "row_count", "scanned_bytes", "execution_millis", "report_path", "started_at", "completed_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT run_id, execution_id, database_name, workgroup, sql_text, state, reason, row_count, scanned_bytes, execution_millis, report_path, started_at, completed_at
FROM query_run
ORDER BY completed_at DESC
LIMIT $1`)).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(2), "exec-2", "telemetry", "primary", "SELECT 2", "SUCCEEDED", "", int64(1), int64(100), int64(20), "output/b.txt", now, now).
			AddRow(int64(1), "exec-1", "telemetry", "primary", "SELECT 1", "FAILED", "SYNTAX_ERROR", int64(0), int64(0), int64(5), "", now.Add(-time.Minute), now.Add(-time.Minute)))

	records, err := repo.ListRecentRuns(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListRecentRuns() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d", len(records))
	}
	if records[0].ExecutionID != "exec-2" || records[1].State != "FAILED" {
		t.Fatalf("records = %+v", records)
	}
	if records[1].Reason != "SYNTAX_ERROR" {
		t.Fatalf("Reason = %q", records[1].Reason)
	}
	assertSQLMock(t, mock)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), DBConfig{})
	if err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
