package bridge

import (
	"fmt"
	"time"
)

// TimeoutError reports that no matching reply arrived within the
// deadline for a request.
type TimeoutError struct {
	Action string
	Wait   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for reply to %s after %s", e.Action, e.Wait)
}

// RemoteError carries the error text the host explicitly replied with.
// Message holds the host's text verbatim.
type RemoteError struct {
	Action  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}
