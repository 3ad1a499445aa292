package exec

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoCredentials is returned by client constructors when no usable
// execution credentials can be resolved.
var ErrNoCredentials = errors.New("no execution credentials available")

// ExecutionError reports a terminal FAILED or CANCELLED state, carrying the
// service-provided reason ("Unknown" when the service gave none).
type ExecutionError struct {
	State  State
	Reason string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query %s: %s", e.State, e.Reason)
}

// ServiceError wraps a rejected service call with the operation that failed.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WaitTimeoutError reports that the configured maximum wait elapsed before a
// terminal state was observed. It only occurs when MaxWait > 0.
type WaitTimeoutError struct {
	Waited time.Duration
	Last   State
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("gave up waiting for terminal state after %s (last state %s)", e.Waited, e.Last)
}
