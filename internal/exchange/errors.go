package exchange

import (
	"fmt"
	"time"
)

// NotFoundError reports that the target session did not exist when the call
// started. Existence is checked once up front; a session vanishing mid-poll
// surfaces as a timeout instead.
type NotFoundError struct {
	Target string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.Target)
}

// TransmitError reports that injecting keystrokes into the target failed.
// It is surfaced immediately and never retried.
type TransmitError struct {
	Target string
	Err    error
}

func (e *TransmitError) Error() string {
	return fmt.Sprintf("transmit to session %q failed: %v", e.Target, e.Err)
}

func (e *TransmitError) Unwrap() error {
	return e.Err
}

// TimeoutError reports that no qualifying response appeared before the
// deadline. This is the expected outcome for unanswered requests, not a
// crash condition; it names the target and the timeout so operators can tell
// "nobody there" from "didn't answer in time".
type TimeoutError struct {
	Target  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no response from session %q within %s", e.Target, e.Timeout)
}
