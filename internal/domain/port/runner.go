package port

import (
	"context"
	"time"
)

type RunSpec struct {
	Binary  string
	Args    []string
	Timeout time.Duration
}

// RunResult is the outcome of one process run. When TimedOut is set the
// process was killed and ExitCode is meaningless.
type RunResult struct {
	PID      int
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	TimedOut bool
}

// ProcessRunner runs an external process to completion or until its timeout.
// It returns an error only when the process could not be started or ctx ended
// first; both exit codes and timeouts are reported through RunResult.
type ProcessRunner interface {
	Run(ctx context.Context, spec RunSpec) (*RunResult, error)
}
