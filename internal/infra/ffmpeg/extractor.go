package ffmpeg

import (
	"context"
	"errors"
	"fmt"

	"github.com/fiapx/fiapx-snapshot-service/internal/domain/entity"
	"github.com/fiapx/fiapx-snapshot-service/internal/domain/port"
	"go.uber.org/zap"
)

// Extractor pulls a single frame from a stream by running ffmpeg once per call.
type Extractor struct {
	binary    string
	streamURL string
	runner    port.ProcessRunner
	logger    *zap.Logger
}

func NewExtractor(binary, streamURL string, runner port.ProcessRunner, logger *zap.Logger) *Extractor {
	return &Extractor{binary: binary, streamURL: streamURL, runner: runner, logger: logger}
}

func (e *Extractor) Capture(ctx context.Context, req entity.CaptureRequest) (*entity.Frame, error) {
	res, err := e.runner.Run(ctx, port.RunSpec{
		Binary:  e.binary,
		Args:    e.args(req.Codec),
		Timeout: req.Timeout(),
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", entity.ErrCaptureCanceled, err)
		}
		return nil, &entity.ProcessError{Err: err}
	}

	if res.TimedOut {
		return nil, &entity.TimeoutError{Limit: req.Timeout()}
	}
	if res.ExitCode != 0 {
		return nil, &entity.ExitError{Code: res.ExitCode, Stderr: string(res.Stderr)}
	}
	if len(res.Stdout) == 0 {
		return nil, entity.ErrEmptyFrame
	}

	e.logger.Debug("frame captured",
		zap.String("codec", req.Codec),
		zap.Int("bytes", len(res.Stdout)),
	)

	return &entity.Frame{Data: res.Stdout, Codec: req.Codec}, nil
}

// args asks ffmpeg for exactly one frame over TCP transport, written as a raw
// image stream to stdout.
func (e *Extractor) args(codec string) []string {
	return []string{
		"-rtsp_transport", "tcp",
		"-y",
		"-i", e.streamURL,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", codec,
		"pipe:1",
	}
}
