package entity

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEmptyFrame      = errors.New("ffmpeg produced no image data")
	ErrCaptureCanceled = errors.New("capture canceled")
	ErrTooManyCaptures = errors.New("too many concurrent captures")
)

// TimeoutError reports a capture process killed after exceeding its deadline.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Timeout after %d ms", e.Limit.Milliseconds())
}

// ProcessError reports a process that could not be started at all.
type ProcessError struct {
	Err error
}

func (e *ProcessError) Error() string {
	return e.Err.Error()
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// ExitError reports a capture process that exited with a non-zero code.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.Code, e.Stderr)
}

// Outcome labels an error for metrics and logs.
func Outcome(err error) string {
	var (
		timeoutErr *TimeoutError
		processErr *ProcessError
		exitErr    *ExitError
	)
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &processErr):
		return "process_error"
	case errors.As(err, &exitErr):
		return "exit_error"
	case errors.Is(err, ErrEmptyFrame):
		return "empty"
	case errors.Is(err, ErrCaptureCanceled):
		return "canceled"
	case errors.Is(err, ErrTooManyCaptures):
		return "rejected"
	default:
		return "error"
	}
}
