package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunRecord is one completed (or failed) query execution.
type RunRecord struct {
	RunID           int64
	ExecutionID     string
	Database        string
	Workgroup       string
	SQL             string
	State           string
	Reason          string
	RowCount        int64
	ScannedBytes    int64
	ExecutionMillis int64
	ReportPath      string
	StartedAt       time.Time
	CompletedAt     time.Time
}

type InsertRunInput struct {
	ExecutionID     string
	Database        string
	Workgroup       string
	SQL             string
	State           string
	Reason          string
	RowCount        int64
	ScannedBytes    int64
	ExecutionMillis int64
	ReportPath      string
	StartedAt       time.Time
	CompletedAt     time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

func (r *Repository) InsertRun(ctx context.Context, in InsertRunInput) (RunRecord, error) {
	query := `
INSERT INTO query_run (execution_id, database_name, workgroup, sql_text, state, reason, row_count, scanned_bytes, execution_millis, report_path, started_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING run_id`

	record := RunRecord{
		ExecutionID:     in.ExecutionID,
		Database:        in.Database,
		Workgroup:       in.Workgroup,
		SQL:             in.SQL,
		State:           in.State,
		Reason:          in.Reason,
		RowCount:        in.RowCount,
		ScannedBytes:    in.ScannedBytes,
		ExecutionMillis: in.ExecutionMillis,
		ReportPath:      in.ReportPath,
		StartedAt:       in.StartedAt,
		CompletedAt:     in.CompletedAt,
	}

	if err := r.db.QueryRowContext(ctx, query,
		in.ExecutionID,
		in.Database,
		in.Workgroup,
		in.SQL,
		in.State,
		in.Reason,
		in.RowCount,
		in.ScannedBytes,
		in.ExecutionMillis,
		in.ReportPath,
		in.StartedAt,
		in.CompletedAt,
	).Scan(&record.RunID); err != nil {
		return RunRecord{}, fmt.Errorf("insert query run: %w", err)
	}
	return record, nil
}

// ListRecentRuns returns up to limit runs, newest first. A non-positive limit
// falls back to 20.
func (r *Repository) ListRecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT run_id, execution_id, database_name, workgroup, sql_text, state, reason, row_count, scanned_bytes, execution_millis, report_path, started_at, completed_at
FROM query_run
ORDER BY completed_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]RunRecord, 0)
	for rows.Next() {
		var record RunRecord
		if err := rows.Scan(
			&record.RunID,
			&record.ExecutionID,
			&record.Database,
			&record.Workgroup,
			&record.SQL,
			&record.State,
			&record.Reason,
			&record.RowCount,
			&record.ScannedBytes,
			&record.ExecutionMillis,
			&record.ReportPath,
			&record.StartedAt,
			&record.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan query run row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query run rows: %w", err)
	}
	return records, nil
}
