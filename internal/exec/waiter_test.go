package exec

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type scriptedClient struct {
	statuses    []Status
	statusErr   error
	statusCalls int

	pages      map[string]ResultPage
	fetchErr   error
	fetchCalls []string
	maxResults []int
}

func (c *scriptedClient) Submit(context.Context, Submission) (Handle, error) {
	return "exec-1", nil
}

func (c *scriptedClient) Status(context.Context, Handle) (Status, error) {
	if c.statusErr != nil {
		return Status{}, c.statusErr
	}
	if c.statusCalls >= len(c.statuses) {
		return Status{}, fmt.Errorf("unexpected status call %d", c.statusCalls+1)
	}
	status := c.statuses[c.statusCalls]
	c.statusCalls++
	return status, nil
}

func (c *scriptedClient) FetchPage(_ context.Context, _ Handle, token string, maxResults int) (ResultPage, error) {
	if c.fetchErr != nil {
		return ResultPage{}, c.fetchErr
	}
	c.fetchCalls = append(c.fetchCalls, token)
	c.maxResults = append(c.maxResults, maxResults)
	page, ok := c.pages[token]
	if !ok {
		return ResultPage{}, fmt.Errorf("unexpected page token %q", token)
	}
	return page, nil
}

func TestWaitPollsUntilSucceeded(t *testing.T) {
	client := &scriptedClient{statuses: []Status{
		{State: StateRunning},
		{State: StateRunning},
		{State: StateSucceeded, Stats: Stats{ScannedBytes: 4096, ExecutionMillis: 321}},
	}}
	sleeps := 0
	waiter := &Waiter{
		Client:       client,
		PollInterval: time.Second,
		Sleep: func(context.Context, time.Duration) error {
			sleeps++
			return nil
		},
	}

	status, err := waiter.Wait(context.Background(), "exec-1")
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if client.statusCalls != 3 {
		t.Fatalf("status calls = %d, want 3", client.statusCalls)
	}
	if sleeps != 2 {
		t.Fatalf("sleeps = %d, want 2", sleeps)
	}
	if status.Stats.ScannedBytes != 4096 || status.Stats.ExecutionMillis != 321 {
		t.Fatalf("Stats = %+v", status.Stats)
	}
}

func TestWaitFailedCarriesReason(t *testing.T) {
	client := &scriptedClient{statuses: []Status{
		{State: StateQueued},
		{State: StateFailed, Reason: "SYNTAX_ERROR: line 1:8: Column 'x' cannot be resolved"},
	}}
	waiter := &Waiter{Client: client, Sleep: func(context.Context, time.Duration) error { return nil }}

	_, err := waiter.Wait(context.Background(), "exec-1")
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Wait() error = %v, want *ExecutionError", err)
	}
	if execErr.State != StateFailed {
		t.Fatalf("State = %q", execErr.State)
	}
	if execErr.Reason != "SYNTAX_ERROR: line 1:8: Column 'x' cannot be resolved" {
		t.Fatalf("Reason = %q", execErr.Reason)
	}
}

func TestWaitCancelledWithoutReasonReportsUnknown(t *testing.T) {
	client := &scriptedClient{statuses: []Status{{State: StateCancelled}}}
	waiter := &Waiter{Client: client}

	_, err := waiter.Wait(context.Background(), "exec-1")
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Wait() error = %v, want *ExecutionError", err)
	}
	if execErr.Reason != "Unknown" {
		t.Fatalf("Reason = %q, want Unknown", execErr.Reason)
	}
}

func TestWaitSurfacesStatusCallErrors(t *testing.T) {
	client := &scriptedClient{statusErr: fmt.Errorf("ThrottlingException: rate exceeded")}
	waiter := &Waiter{Client: client}

	_, err := waiter.Wait(context.Background(), "exec-1")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("Wait() error = %v, want *ServiceError", err)
	}
	if svcErr.Op != "poll execution status" {
		t.Fatalf("Op = %q", svcErr.Op)
	}
}

func TestWaitHonorsMaxWait(t *testing.T) {
	client := &scriptedClient{statuses: []Status{
		{State: StateRunning},
		{State: StateRunning},
		{State: StateRunning},
	}}
	now := time.Unix(0, 0)
	waiter := &Waiter{
		Client:       client,
		PollInterval: time.Second,
		MaxWait:      2 * time.Second,
		Clock: func() time.Time {
			now = now.Add(time.Second)
			return now
		},
		Sleep: func(context.Context, time.Duration) error { return nil },
	}

	_, err := waiter.Wait(context.Background(), "exec-1")
	var timeoutErr *WaitTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("Wait() error = %v, want *WaitTimeoutError", err)
	}
	if timeoutErr.Last != StateRunning {
		t.Fatalf("Last = %q", timeoutErr.Last)
	}
}

func TestWaitStopsWhenContextCancelledDuringSleep(t *testing.T) {
	client := &scriptedClient{statuses: []Status{{State: StateRunning}}}
	ctx, cancel := context.WithCancel(context.Background())
	waiter := &Waiter{
		Client:       client,
		PollInterval: time.Minute,
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return sleepContext(ctx, d)
		},
	}

	_, err := waiter.Wait(ctx, "exec-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait() error = %v, want context.Canceled", err)
	}
}
