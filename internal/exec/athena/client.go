// Package athena implements the exec.Client interface on top of the AWS
// Athena API.
package athena

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"

	"github.com/athenaq/athenaq/internal/exec"
)

type Config struct {
	Region  string
	Profile string
	// Static credentials override the default provider chain when set.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// api is the slice of the Athena service this tool consumes.
type api interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

type Client struct {
	api api
}

// New resolves AWS configuration and credentials and returns a ready-to-use
// client. Missing or unusable credentials surface as exec.ErrNoCredentials
// before any query is submitted.
func New(ctx context.Context, cfg Config) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", exec.ErrNoCredentials, err)
	}

	return &Client{api: athena.NewFromConfig(awsCfg)}, nil
}

// NewWithAPI wires an explicit service API, used by tests.
func NewWithAPI(a api) *Client {
	return &Client{api: a}
}

func (c *Client) Submit(ctx context.Context, sub exec.Submission) (exec.Handle, error) {
	input := &athena.StartQueryExecutionInput{
		QueryString: aws.String(sub.SQL),
		QueryExecutionContext: &types.QueryExecutionContext{
			Database: aws.String(sub.Database),
		},
	}
	if sub.OutputLocation != "" {
		input.ResultConfiguration = &types.ResultConfiguration{
			OutputLocation: aws.String(sub.OutputLocation),
		}
	}
	if sub.Workgroup != "" {
		input.WorkGroup = aws.String(sub.Workgroup)
	}

	out, err := c.api.StartQueryExecution(ctx, input)
	if err != nil {
		return "", fmt.Errorf("start query execution: %w", err)
	}
	if out.QueryExecutionId == nil {
		return "", fmt.Errorf("start query execution: service returned no execution id")
	}
	return exec.Handle(*out.QueryExecutionId), nil
}

func (c *Client) Status(ctx context.Context, handle exec.Handle) (exec.Status, error) {
	out, err := c.api.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
		QueryExecutionId: aws.String(string(handle)),
	})
	if err != nil {
		return exec.Status{}, fmt.Errorf("get query execution: %w", err)
	}
	if out.QueryExecution == nil || out.QueryExecution.Status == nil {
		return exec.Status{}, fmt.Errorf("get query execution: service returned no status")
	}

	execution := out.QueryExecution
	status := exec.Status{
		State:  mapState(execution.Status.State),
		Reason: aws.ToString(execution.Status.StateChangeReason),
	}
	if stats := execution.Statistics; stats != nil {
		status.Stats = exec.Stats{
			ScannedBytes:    aws.ToInt64(stats.DataScannedInBytes),
			ExecutionMillis: aws.ToInt64(stats.TotalExecutionTimeInMillis),
		}
	}
	return status, nil
}

func (c *Client) FetchPage(ctx context.Context, handle exec.Handle, pageToken string, maxResults int) (exec.ResultPage, error) {
	input := &athena.GetQueryResultsInput{
		QueryExecutionId: aws.String(string(handle)),
		MaxResults:       aws.Int32(int32(maxResults)),
	}
	if pageToken != "" {
		input.NextToken = aws.String(pageToken)
	}

	out, err := c.api.GetQueryResults(ctx, input)
	if err != nil {
		return exec.ResultPage{}, fmt.Errorf("get query results: %w", err)
	}
	if out.ResultSet == nil {
		return exec.ResultPage{}, fmt.Errorf("get query results: service returned no result set")
	}

	page := exec.ResultPage{NextToken: aws.ToString(out.NextToken)}
	if meta := out.ResultSet.ResultSetMetadata; meta != nil {
		page.Columns = make([]string, 0, len(meta.ColumnInfo))
		for _, column := range meta.ColumnInfo {
			label := aws.ToString(column.Label)
			if label == "" {
				label = aws.ToString(column.Name)
			}
			page.Columns = append(page.Columns, label)
		}
	}
	page.Rows = make([][]string, 0, len(out.ResultSet.Rows))
	for _, row := range out.ResultSet.Rows {
		cells := make([]string, 0, len(row.Data))
		for _, datum := range row.Data {
			cells = append(cells, aws.ToString(datum.VarCharValue))
		}
		page.Rows = append(page.Rows, cells)
	}
	return page, nil
}

func mapState(state types.QueryExecutionState) exec.State {
	switch state {
	case types.QueryExecutionStateQueued:
		return exec.StateQueued
	case types.QueryExecutionStateRunning:
		return exec.StateRunning
	case types.QueryExecutionStateSucceeded:
		return exec.StateSucceeded
	case types.QueryExecutionStateFailed:
		return exec.StateFailed
	case types.QueryExecutionStateCancelled:
		return exec.StateCancelled
	default:
		// Unknown states are treated as still in flight; the service enum is
		// closed, so this should not occur.
		return exec.State(strings.ToUpper(string(state)))
	}
}
