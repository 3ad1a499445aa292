package exec

import (
	"context"
	"log/slog"
	"time"

	"github.com/athenaq/athenaq/internal/observability"
)

// Waiter drives the polling state machine from submission to a terminal
// state. It polls at a fixed interval and never retries a failed status call.
type Waiter struct {
	Client       Client
	PollInterval time.Duration
	// MaxWait bounds the total wait; zero waits indefinitely.
	MaxWait time.Duration
	Logger  *slog.Logger
	Clock   func() time.Time
	Sleep   func(context.Context, time.Duration) error
}

// Wait polls until the execution reaches a terminal state. On SUCCEEDED it
// returns the full status record including stats; FAILED and CANCELLED become
// an ExecutionError carrying the service-reported reason.
func (w *Waiter) Wait(ctx context.Context, handle Handle) (Status, error) {
	w.ensureDefaults()
	start := w.Clock()

	for {
		status, err := w.Client.Status(ctx, handle)
		if err != nil {
			return Status{}, &ServiceError{Op: "poll execution status", Err: err}
		}
		observability.IncrementStatusPoll()

		switch status.State {
		case StateSucceeded:
			return status, nil
		case StateFailed, StateCancelled:
			reason := status.Reason
			if reason == "" {
				reason = "Unknown"
			}
			return Status{}, &ExecutionError{State: status.State, Reason: reason}
		}

		if w.Logger != nil {
			w.Logger.InfoContext(ctx, "query still executing",
				slog.String("execution_id", string(handle)),
				slog.String("state", string(status.State)),
			)
		}

		if w.MaxWait > 0 {
			if waited := w.Clock().Sub(start); waited >= w.MaxWait {
				return Status{}, &WaitTimeoutError{Waited: waited, Last: status.State}
			}
		}

		if err := w.Sleep(ctx, w.PollInterval); err != nil {
			return Status{}, err
		}
	}
}

func (w *Waiter) ensureDefaults() {
	if w.PollInterval <= 0 {
		w.PollInterval = time.Second
	}
	if w.Clock == nil {
		w.Clock = time.Now
	}
	if w.Sleep == nil {
		w.Sleep = sleepContext
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
