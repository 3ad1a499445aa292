// Package run orchestrates a full query run: prepare the SQL, submit it,
// wait for a terminal state, collect the paged results, and render the
// report. Artifact upload and history recording are optional steps that run
// only when configured.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/athenaq/athenaq/internal/exec"
	"github.com/athenaq/athenaq/internal/history"
	"github.com/athenaq/athenaq/internal/observability"
	"github.com/athenaq/athenaq/internal/query"
	"github.com/athenaq/athenaq/internal/report"
	"github.com/athenaq/athenaq/internal/storage"
)

// Recorder is the slice of the history repository the pipeline needs.
type Recorder interface {
	InsertRun(ctx context.Context, in history.InsertRunInput) (history.RunRecord, error)
}

type Pipeline struct {
	Client exec.Client
	Logger *slog.Logger

	QueryDir  string
	OutputDir string

	PollInterval time.Duration
	MaxWait      time.Duration
	PageSize     int

	// Store and Recorder are nil when artifact upload or run history is
	// disabled.
	Store    storage.ObjectStore
	Recorder Recorder

	Clock func() time.Time
}

// Request describes one query run.
type Request struct {
	Query          string
	Params         map[string]string
	Database       string
	Workgroup      string
	OutputLocation string
}

// Result reports where the run ended up.
type Result struct {
	ExecutionID string
	ReportPath  string
	ArtifactKey string
	RowCount    int
	Stats       exec.Stats
}

func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if runID := observability.RunIDFromContext(ctx); runID != "" {
		logger = logger.With(slog.String("run_id", runID))
	}
	clock := p.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	startedAt := clock()

	queryText, err := query.Load(p.QueryDir, req.Query)
	if err != nil {
		return Result{}, fmt.Errorf("load query: %w", err)
	}
	queryText = query.Substitute(queryText, req.Params)
	if err := query.ValidateReadOnly(queryText); err != nil {
		return Result{}, err
	}

	logger.Info("submitting query",
		slog.String("database", req.Database),
		slog.Int("query_bytes", len(queryText)))

	handle, err := p.Client.Submit(ctx, exec.Submission{
		Database:       req.Database,
		SQL:            queryText,
		OutputLocation: req.OutputLocation,
		Workgroup:      req.Workgroup,
	})
	if err != nil {
		return Result{}, &exec.ServiceError{Op: "submit query", Err: err}
	}
	logger.Info("query submitted", slog.String("execution_id", string(handle)))

	waiter := &exec.Waiter{
		Client:       p.Client,
		PollInterval: p.PollInterval,
		MaxWait:      p.MaxWait,
		Logger:       logger,
	}
	status, err := waiter.Wait(ctx, handle)
	completedAt := clock()
	if err != nil {
		if execErr, ok := err.(*exec.ExecutionError); ok {
			p.recordRun(ctx, logger, history.InsertRunInput{
				ExecutionID:     string(handle),
				Database:        req.Database,
				Workgroup:       req.Workgroup,
				SQL:             queryText,
				State:           string(execErr.State),
				Reason:          execErr.Reason,
				ScannedBytes:    status.Stats.ScannedBytes,
				ExecutionMillis: status.Stats.ExecutionMillis,
				StartedAt:       startedAt,
				CompletedAt:     completedAt,
			})
			observability.ObserveQueryRun(string(execErr.State), status.Stats.ScannedBytes, completedAt.Sub(startedAt))
		}
		return Result{ExecutionID: string(handle)}, err
	}

	collector := &exec.Collector{Client: p.Client, PageSize: p.PageSize}
	table, err := collector.Collect(ctx, handle)
	if err != nil {
		return Result{ExecutionID: string(handle)}, err
	}

	content := report.Format(table, queryText, report.Metadata{
		GeneratedAt: completedAt,
		Database:    req.Database,
		ExecutionID: string(handle),
		Stats:       status.Stats,
	})
	reportPath, err := report.Write(p.OutputDir, completedAt, content)
	if err != nil {
		return Result{ExecutionID: string(handle)}, fmt.Errorf("write report: %w", err)
	}
	logger.Info("report written",
		slog.String("path", reportPath),
		slog.Int("rows", len(table.Rows)),
		slog.Int64("scanned_bytes", status.Stats.ScannedBytes))

	artifactKey := ""
	if p.Store != nil {
		artifactKey, err = p.uploadArtifact(ctx, reportPath, completedAt, content)
		if err != nil {
			return Result{ExecutionID: string(handle), ReportPath: reportPath}, fmt.Errorf("upload report artifact: %w", err)
		}
		logger.Info("report archived", slog.String("key", artifactKey))
	}

	p.recordRun(ctx, logger, history.InsertRunInput{
		ExecutionID:     string(handle),
		Database:        req.Database,
		Workgroup:       req.Workgroup,
		SQL:             queryText,
		State:           string(status.State),
		RowCount:        int64(len(table.Rows)),
		ScannedBytes:    status.Stats.ScannedBytes,
		ExecutionMillis: status.Stats.ExecutionMillis,
		ReportPath:      reportPath,
		StartedAt:       startedAt,
		CompletedAt:     completedAt,
	})
	observability.ObserveQueryRun(string(status.State), status.Stats.ScannedBytes, completedAt.Sub(startedAt))

	return Result{
		ExecutionID: string(handle),
		ReportPath:  reportPath,
		ArtifactKey: artifactKey,
		RowCount:    len(table.Rows),
		Stats:       status.Stats,
	}, nil
}

func (p *Pipeline) uploadArtifact(ctx context.Context, reportPath string, generatedAt time.Time, content string) (string, error) {
	key, err := storage.BuildReportKey(generatedAt, reportPath)
	if err != nil {
		return "", err
	}
	reader := strings.NewReader(content)
	if _, err := p.Store.Put(ctx, key, reader, int64(len(content)), storage.PutOptions{ContentType: "text/plain; charset=utf-8"}); err != nil {
		return "", err
	}
	return key, nil
}

// recordRun inserts into history on a best effort basis; failures are
// logged, not returned.
func (p *Pipeline) recordRun(ctx context.Context, logger *slog.Logger, in history.InsertRunInput) {
	if p.Recorder == nil {
		return
	}
	if _, err := p.Recorder.InsertRun(ctx, in); err != nil {
		logger.Warn("record query run failed",
			slog.String("execution_id", in.ExecutionID),
			slog.String("error", err.Error()))
	}
}
