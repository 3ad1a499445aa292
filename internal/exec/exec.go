// Package exec models the asynchronous query service boundary: submit a
// statement, poll its execution until a terminal state, then page through the
// result set. Implementations live in the athena (real service) and local
// (DuckDB emulator) subpackages.
package exec

import (
	"context"
)

// Handle is the opaque execution identifier returned on submission. It is
// owned by a single run and never reused.
type Handle string

type State string

const (
	StateQueued    State = "QUEUED"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
	StateCancelled State = "CANCELLED"
)

// Terminal reports whether no further state transition can occur.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// Stats is execution accounting attached to a terminal SUCCEEDED status. Used
// for reporting only, never for control flow.
type Stats struct {
	ScannedBytes    int64
	ExecutionMillis int64
}

// Status is a point-in-time observation of an execution. Reason is populated
// by the service for FAILED and CANCELLED only.
type Status struct {
	State  State
	Reason string
	Stats  Stats
}

type Submission struct {
	Database       string
	SQL            string
	OutputLocation string
	Workgroup      string
}

// ResultPage is one page of results. Columns is populated from result-set
// metadata on the first page only. The service duplicates the column labels as
// the first data row of the first page; callers paging manually must discard
// it (the Collector does).
type ResultPage struct {
	Columns   []string
	Rows      [][]string
	NextToken string
}

// Client is the tool's view of the managed query service.
type Client interface {
	Submit(ctx context.Context, sub Submission) (Handle, error)
	Status(ctx context.Context, handle Handle) (Status, error)
	FetchPage(ctx context.Context, handle Handle, pageToken string, maxResults int) (ResultPage, error)
}

// Table is the fully collected result set: ordered column labels plus rows of
// positionally aligned string cells. Immutable once Collect returns.
type Table struct {
	Columns []string
	Rows    [][]string
}
