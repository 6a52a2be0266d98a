package orchestrator

import (
	"errors"
	"fmt"
)

// ErrRunTerminalFailure marks a run that reached a terminal state other than
// completed (cancelled, failed, expired, incomplete).
var ErrRunTerminalFailure = errors.New("run ended without success")

// ErrRunTimedOut marks a run whose polling exceeded the configured bound.
// It matches ErrRunTerminalFailure under errors.Is while staying
// distinguishable from the remote service's own "expired" status.
var ErrRunTimedOut = fmt.Errorf("%w: polling timed out", ErrRunTerminalFailure)
