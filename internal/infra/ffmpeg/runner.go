package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/fiapx/fiapx-snapshot-service/internal/domain/port"
	"go.uber.org/zap"
)

// DefaultWaitDelay bounds how long Run keeps draining stdout/stderr after the
// process is gone, in case a grandchild still holds the pipes.
const DefaultWaitDelay = 2 * time.Second

// Runner executes one external process per call with a hard deadline.
type Runner struct {
	waitDelay time.Duration
	logger    *zap.Logger
}

func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{waitDelay: DefaultWaitDelay, logger: logger}
}

// Run starts spec.Binary and settles on the first of: process exit, deadline,
// ctx cancellation. On deadline or cancellation the process gets SIGKILL.
// Run does not return before the process has been reaped.
func (r *Runner) Run(ctx context.Context, spec port.RunSpec) (*port.RunResult, error) {
	cmd := exec.Command(spec.Binary, spec.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.waitDelay

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", spec.Binary, err)
	}

	pid := cmd.Process.Pid
	log := r.logger.With(zap.String("binary", spec.Binary), zap.Int("pid", pid))
	log.Debug("process started", zap.Strings("args", spec.Args))

	s := newSettlement()
	kill := func(reason string) {
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			log.Warn("kill failed", zap.String("reason", reason), zap.Error(err))
			return
		}
		log.Warn("process killed", zap.String("reason", reason))
	}

	var timer *time.Timer
	if spec.Timeout > 0 {
		timer = time.AfterFunc(spec.Timeout, func() {
			if s.settle(&port.RunResult{PID: pid, ExitCode: -1, TimedOut: true}, nil) {
				kill("timeout")
			}
		})
	}

	stopCancel := context.AfterFunc(ctx, func() {
		if s.settle(nil, fmt.Errorf("run %s: %w", spec.Binary, ctx.Err())) {
			kill("context done")
		}
	})

	reaped := make(chan struct{})
	go func() {
		defer close(reaped)
		waitErr := cmd.Wait()
		if timer != nil {
			timer.Stop()
		}
		stopCancel()

		res := &port.RunResult{PID: pid}
		var exitErr *exec.ExitError
		switch {
		case waitErr == nil, errors.Is(waitErr, exec.ErrWaitDelay):
			res.ExitCode = cmd.ProcessState.ExitCode()
		case errors.As(waitErr, &exitErr):
			res.ExitCode = exitErr.ExitCode()
		default:
			s.settle(nil, fmt.Errorf("wait %s: %w", spec.Binary, waitErr))
			return
		}
		res.Stdout = stdout.Bytes()
		res.Stderr = stderr.Bytes()
		s.settle(res, nil)
	}()

	<-reaped
	res, err := s.outcome()
	if err == nil && !res.TimedOut {
		log.Debug("process exited",
			zap.Int("exit_code", res.ExitCode),
			zap.Int("stdout_bytes", len(res.Stdout)),
			zap.Int("stderr_bytes", len(res.Stderr)),
		)
	}
	return res, err
}

// settlement records the first outcome of a run and ignores later ones.
type settlement struct {
	mu      sync.Mutex
	settled bool
	result  *port.RunResult
	err     error
}

func newSettlement() *settlement {
	return &settlement{}
}

// settle stores the outcome if none was stored yet and reports whether it won.
func (s *settlement) settle(res *port.RunResult, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settled {
		return false
	}
	s.settled = true
	s.result = res
	s.err = err
	return true
}

func (s *settlement) outcome() (*port.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}
