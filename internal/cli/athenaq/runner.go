// Package athenaq implements the query runner command line. A run loads a
// query, submits it to Athena (or the local engine), waits for completion,
// and writes a text report.
package athenaq

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/athenaq/athenaq/internal/config"
	"github.com/athenaq/athenaq/internal/exec"
	"github.com/athenaq/athenaq/internal/exec/athena"
	"github.com/athenaq/athenaq/internal/exec/local"
	"github.com/athenaq/athenaq/internal/history"
	"github.com/athenaq/athenaq/internal/observability"
	"github.com/athenaq/athenaq/internal/query"
	"github.com/athenaq/athenaq/internal/run"
	"github.com/athenaq/athenaq/internal/storage"
	"github.com/athenaq/athenaq/internal/storage/s3"
)

type Options struct {
	// Lookup overrides the process environment; nil reads os.Environ.
	Lookup config.LookupFunc
	// Client, Store, and Recorder override the configured implementations.
	Client   exec.Client
	Store    storage.ObjectStore
	Recorder run.Recorder
	Stdout   io.Writer
	Stderr   io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("athenaq", flag.ContinueOnError)
	fs.SetOutput(stderr)

	queryArg := fs.String("query", "", "SQL text, or a .sql file name resolved against the query dir")
	params := paramFlags{}
	fs.Var(&params, "param", "query parameter as name=value (repeatable)")
	database := fs.String("database", "", "Athena database (overrides ATHENAQ_DATABASE)")
	workgroup := fs.String("workgroup", "", "Athena workgroup (overrides ATHENAQ_WORKGROUP)")
	outputLocation := fs.String("output-location", "", "S3 output location for Athena results")
	outputDir := fs.String("output-dir", "", "directory for report files (overrides ATHENAQ_REPORT_DIR)")
	localMode := fs.Bool("local", false, "run against the local DuckDB engine instead of Athena")
	dataDir := fs.String("data-dir", "sample_data/data", "parquet data directory for the local engine")
	pollInterval := fs.Duration("poll-interval", 0, "status poll interval (overrides ATHENAQ_POLL_INTERVAL)")
	maxWait := fs.Duration("max-wait", -1, "max time to wait for completion, 0 waits forever")
	historyLimit := fs.Int("history", 0, "list the N most recent recorded runs and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*queryArg) == "" && fs.NArg() > 0 {
		*queryArg = strings.TrimSpace(fs.Arg(0))
	}
	if strings.TrimSpace(*queryArg) == "" && *historyLimit <= 0 {
		_, _ = fmt.Fprintln(stderr, "a query is required: pass -query or a positional SQL argument")
		fs.Usage()
		return 2
	}

	lookup := defaults.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg, err := config.Load("athenaq", lookup)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	applyOverrides(&cfg, *database, *workgroup, *outputLocation, *outputDir, *pollInterval, *maxWait)

	logger := observability.NewLogger(cfg, stderr)
	ctx = observability.ContextWithRunID(ctx, newRunID())

	recorder := defaults.Recorder
	if recorder == nil && cfg.History.Enabled {
		db, err := history.Open(ctx, history.DBConfig{
			DSN:             cfg.History.DSN,
			MaxOpenConns:    cfg.History.MaxOpenConns,
			MaxIdleConns:    cfg.History.MaxIdleConns,
			ConnMaxIdleTime: cfg.History.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.History.ConnMaxLifetime,
		})
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "open history db: %v\n", err)
			return 1
		}
		defer func() { _ = db.Close() }()
		recorder = history.NewRepository(db)
	}

	if *historyLimit > 0 {
		lister, ok := recorder.(runLister)
		if !ok {
			_, _ = fmt.Fprintln(stderr, "run history is not enabled: set ATHENAQ_HISTORY_ENABLED and ATHENAQ_HISTORY_DSN")
			return 1
		}
		return listHistory(ctx, stdout, stderr, lister, *historyLimit)
	}

	client := defaults.Client
	if client == nil {
		if *localMode {
			client = local.NewEngine(*dataDir)
		} else {
			client, err = athena.New(ctx, athena.Config{
				Region:          cfg.Athena.Region,
				Profile:         cfg.Athena.AWSProfile,
				AccessKeyID:     cfg.Athena.AccessKeyID,
				SecretAccessKey: cfg.Athena.SecretAccessKey,
				SessionToken:    cfg.Athena.SessionToken,
			})
			if err != nil {
				if errors.Is(err, exec.ErrNoCredentials) {
					_, _ = fmt.Fprintln(stderr, "AWS credentials not found: configure a profile, environment credentials, or ATHENAQ_AWS_ACCESS_KEY_ID / ATHENAQ_AWS_SECRET_ACCESS_KEY")
					return 1
				}
				_, _ = fmt.Fprintf(stderr, "create athena client: %v\n", err)
				return 1
			}
		}
	}

	store := defaults.Store
	if store == nil && cfg.Artifact.Enabled {
		store, err = s3.New(ctx, s3.Config{
			Endpoint:         cfg.Artifact.Endpoint,
			Region:           cfg.Artifact.Region,
			Bucket:           cfg.Artifact.Bucket,
			AccessKeyID:      cfg.Artifact.AccessKeyID,
			SecretAccessKey:  cfg.Artifact.SecretAccessKey,
			UseSSL:           cfg.Artifact.UseSSL,
			Prefix:           cfg.Artifact.Prefix,
			AutoCreateBucket: cfg.Artifact.AutoCreateBucket,
		})
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "create artifact store: %v\n", err)
			return 1
		}
	}

	pipeline := &run.Pipeline{
		Client:       client,
		Logger:       logger,
		QueryDir:     cfg.Query.Dir,
		OutputDir:    cfg.Report.OutputDir,
		PollInterval: cfg.Runner.PollInterval,
		MaxWait:      cfg.Runner.MaxWait,
		PageSize:     cfg.Runner.PageSize,
		Store:        store,
		Recorder:     recorder,
	}

	if len(params.values) > 0 {
		_, _ = fmt.Fprintf(stdout, "parameters: %s\n", params.String())
	}

	result, err := pipeline.Run(ctx, run.Request{
		Query:          *queryArg,
		Params:         params.values,
		Database:       cfg.Athena.Database,
		Workgroup:      cfg.Athena.Workgroup,
		OutputLocation: cfg.Athena.OutputLocation,
	})
	if err != nil {
		writeRunError(stderr, err)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "execution %s finished: %d rows, %.2f MB scanned in %dms\n",
		result.ExecutionID, result.RowCount, float64(result.Stats.ScannedBytes)/1024/1024, result.Stats.ExecutionMillis)
	_, _ = fmt.Fprintf(stdout, "report written to %s\n", result.ReportPath)
	if result.ArtifactKey != "" {
		_, _ = fmt.Fprintf(stdout, "report archived as %s\n", result.ArtifactKey)
	}
	return 0
}

// runLister is the slice of the history repository the -history flag needs.
type runLister interface {
	ListRecentRuns(ctx context.Context, limit int) ([]history.RunRecord, error)
}

func listHistory(ctx context.Context, stdout, stderr io.Writer, lister runLister, limit int) int {
	records, err := lister.ListRecentRuns(ctx, limit)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "list run history: %v\n", err)
		return 1
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(stdout, "no recorded runs")
		return 0
	}
	for _, r := range records {
		_, _ = fmt.Fprintf(stdout, "%s  %-9s  %6d rows  %8.2f MB  %s\n",
			r.CompletedAt.Format(time.RFC3339), r.State, r.RowCount,
			float64(r.ScannedBytes)/1024/1024, r.ExecutionID)
		if r.Reason != "" {
			_, _ = fmt.Fprintf(stdout, "    reason: %s\n", r.Reason)
		}
	}
	return 0
}

func applyOverrides(cfg *config.Config, database, workgroup, outputLocation, outputDir string, pollInterval, maxWait time.Duration) {
	if strings.TrimSpace(database) != "" {
		cfg.Athena.Database = strings.TrimSpace(database)
	}
	if strings.TrimSpace(workgroup) != "" {
		cfg.Athena.Workgroup = strings.TrimSpace(workgroup)
	}
	if strings.TrimSpace(outputLocation) != "" {
		cfg.Athena.OutputLocation = strings.TrimSpace(outputLocation)
	}
	if strings.TrimSpace(outputDir) != "" {
		cfg.Report.OutputDir = strings.TrimSpace(outputDir)
	}
	if pollInterval > 0 {
		cfg.Runner.PollInterval = pollInterval
	}
	if maxWait >= 0 {
		cfg.Runner.MaxWait = maxWait
	}
}

func writeRunError(stderr io.Writer, err error) {
	var notFound *query.NotFoundError
	var blocked *query.WriteBlockedError
	var execErr *exec.ExecutionError
	var timeout *exec.WaitTimeoutError
	var svcErr *exec.ServiceError

	switch {
	case errors.As(err, &notFound):
		_, _ = fmt.Fprintf(stderr, "query file not found: %s\n", notFound.Path)
	case errors.As(err, &blocked):
		_, _ = fmt.Fprintf(stderr, "query rejected: contains write operation %s\n", strings.TrimSpace(blocked.Keyword))
	case errors.As(err, &execErr):
		_, _ = fmt.Fprintf(stderr, "query %s: %s\n", execErr.State, execErr.Reason)
	case errors.As(err, &timeout):
		_, _ = fmt.Fprintf(stderr, "gave up after %s, last state %s\n", timeout.Waited, timeout.Last)
	case errors.As(err, &svcErr):
		_, _ = fmt.Fprintf(stderr, "service call failed: %v\n", svcErr)
	default:
		_, _ = fmt.Fprintf(stderr, "run failed: %v\n", err)
	}
}

func newRunID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return "run-" + hex.EncodeToString(buf)
}

// paramFlags collects repeated -param name=value flags.
type paramFlags struct {
	values map[string]string
}

func (p *paramFlags) String() string {
	if len(p.values) == 0 {
		return ""
	}
	parts := make([]string, 0, len(p.values))
	for name, value := range p.values {
		parts = append(parts, name+"="+value)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (p *paramFlags) Set(raw string) error {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", raw)
	}
	if p.values == nil {
		p.values = map[string]string{}
	}
	p.values[name] = value
	return nil
}
