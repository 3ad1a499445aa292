// Package local implements the exec.Client interface with an embedded DuckDB
// instance over locally generated parquet fixtures. It emulates the managed
// service's asynchronous lifecycle: submissions are accepted immediately,
// status polls walk QUEUED and RUNNING before reaching a terminal state, and
// the first result page duplicates the column labels as a header row. The
// full pipeline can run and be exercised without any AWS account.
package local

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/athenaq/athenaq/internal/exec"
)

type execution struct {
	columns    []string
	rows       [][]string
	stats      exec.Stats
	failReason string
	polls      int
}

type Engine struct {
	// DataDir holds one subdirectory per table, each containing parquet files
	// (optionally hive-partitioned by dt=...).
	DataDir string

	mu         sync.Mutex
	executions map[exec.Handle]*execution
}

func NewEngine(dataDir string) *Engine {
	return &Engine{
		DataDir:    dataDir,
		executions: make(map[exec.Handle]*execution),
	}
}

// Submit runs the query synchronously against the fixture tables but defers
// the outcome to Status polls, matching the real service where a submission
// with a broken query is still accepted.
func (e *Engine) Submit(ctx context.Context, sub exec.Submission) (exec.Handle, error) {
	handle, err := newHandle()
	if err != nil {
		return "", err
	}

	record := &execution{}
	start := time.Now()
	columns, rows, scannedBytes, err := e.runQuery(ctx, sub.SQL)
	if err != nil {
		record.failReason = err.Error()
	} else {
		record.columns = columns
		record.rows = rows
		record.stats = exec.Stats{
			ScannedBytes:    scannedBytes,
			ExecutionMillis: time.Since(start).Milliseconds(),
		}
	}

	e.mu.Lock()
	if e.executions == nil {
		e.executions = make(map[exec.Handle]*execution)
	}
	e.executions[handle] = record
	e.mu.Unlock()
	return handle, nil
}

// Status reports QUEUED on the first poll, RUNNING on the second, and the
// terminal state from the third poll on.
func (e *Engine) Status(_ context.Context, handle exec.Handle) (exec.Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, ok := e.executions[handle]
	if !ok {
		return exec.Status{}, fmt.Errorf("unknown execution %q", handle)
	}

	record.polls++
	switch {
	case record.polls == 1:
		return exec.Status{State: exec.StateQueued}, nil
	case record.polls == 2:
		return exec.Status{State: exec.StateRunning}, nil
	case record.failReason != "":
		return exec.Status{State: exec.StateFailed, Reason: record.failReason}, nil
	default:
		return exec.Status{State: exec.StateSucceeded, Stats: record.stats}, nil
	}
}

func (e *Engine) FetchPage(_ context.Context, handle exec.Handle, pageToken string, maxResults int) (exec.ResultPage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, ok := e.executions[handle]
	if !ok {
		return exec.ResultPage{}, fmt.Errorf("unknown execution %q", handle)
	}
	if record.failReason != "" {
		return exec.ResultPage{}, fmt.Errorf("execution %q did not succeed", handle)
	}
	if maxResults <= 0 || maxResults > 1000 {
		maxResults = 1000
	}

	// The header row duplicating the column labels is part of the first
	// page's data, exactly as the managed service returns it.
	all := make([][]string, 0, len(record.rows)+1)
	all = append(all, append([]string(nil), record.columns...))
	all = append(all, record.rows...)

	offset := 0
	if pageToken != "" {
		parsed, err := strconv.Atoi(pageToken)
		if err != nil || parsed < 0 || parsed > len(all) {
			return exec.ResultPage{}, fmt.Errorf("invalid page token %q", pageToken)
		}
		offset = parsed
	}

	end := offset + maxResults
	if end > len(all) {
		end = len(all)
	}

	page := exec.ResultPage{Rows: all[offset:end]}
	if pageToken == "" {
		page.Columns = append([]string(nil), record.columns...)
	}
	if end < len(all) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

func (e *Engine) runQuery(ctx context.Context, sqlText string) ([]string, [][]string, int64, error) {
	tables, scannedBytes, err := discoverTables(e.DataDir)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(tables) == 0 {
		return nil, nil, 0, fmt.Errorf("no parquet tables found under %q", e.DataDir)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, nil, 0, fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	for tableName, glob := range tables {
		viewSQL := fmt.Sprintf(
			`CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet(%s, hive_partitioning = true)`,
			quoteIdent(tableName), quoteString(glob),
		)
		if _, err := db.ExecContext(ctx, viewSQL); err != nil {
			return nil, nil, 0, fmt.Errorf("create view for table %q: %w", tableName, err)
		}
	}

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]string, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, nil, 0, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, formatCells(values))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, 0, fmt.Errorf("iterate rows: %w", err)
	}

	return columns, resultRows, scannedBytes, nil
}

// discoverTables maps each first-level subdirectory of dataDir to a recursive
// parquet glob and totals the file sizes as the scanned-bytes figure.
func discoverTables(dataDir string) (map[string]string, int64, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, 0, fmt.Errorf("read data dir %q: %w", dataDir, err)
	}

	tables := make(map[string]string)
	var totalBytes int64
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		tableDir := filepath.Join(dataDir, entry.Name())
		var tableBytes int64
		err := filepath.WalkDir(tableDir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".parquet") {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			tableBytes += info.Size()
			return nil
		})
		if err != nil {
			return nil, 0, fmt.Errorf("walk table dir %q: %w", tableDir, err)
		}
		if tableBytes == 0 {
			continue
		}
		tables[entry.Name()] = filepath.ToSlash(filepath.Join(tableDir, "**", "*.parquet"))
		totalBytes += tableBytes
	}
	return tables, totalBytes, nil
}

func formatCells(values []any) []string {
	cells := make([]string, len(values))
	for i, value := range values {
		cells[i] = formatCell(value)
	}
	return cells
}

func formatCell(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case []byte:
		return string(typed)
	case string:
		return typed
	case time.Time:
		return typed.UTC().Format(time.RFC3339)
	case float32:
		return strconv.FormatFloat(float64(typed), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(typed, 'g', -1, 64)
	default:
		return fmt.Sprint(typed)
	}
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}

func newHandle() (exec.Handle, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate execution id: %w", err)
	}
	return exec.Handle("local-" + hex.EncodeToString(buf)), nil
}
