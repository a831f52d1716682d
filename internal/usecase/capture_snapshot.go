package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fiapx/fiapx-snapshot-service/internal/domain/entity"
	"github.com/fiapx/fiapx-snapshot-service/internal/domain/port"
	"github.com/fiapx/fiapx-snapshot-service/internal/infra/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type captureIDKey struct{}

// WithCaptureID tags ctx with the id used for logs and spans of the capture.
func WithCaptureID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, captureIDKey{}, id)
}

func CaptureID(ctx context.Context) string {
	id, _ := ctx.Value(captureIDKey{}).(string)
	return id
}

type CaptureSnapshotConfig struct {
	// MaxConcurrent bounds in-flight captures; zero means unlimited.
	MaxConcurrent int
}

type CaptureSnapshotUseCase struct {
	capturer port.FrameCapturer
	sem      *semaphore.Weighted
	logger   *zap.Logger
}

func NewCaptureSnapshotUseCase(capturer port.FrameCapturer, logger *zap.Logger, cfg CaptureSnapshotConfig) *CaptureSnapshotUseCase {
	uc := &CaptureSnapshotUseCase{capturer: capturer, logger: logger}
	if cfg.MaxConcurrent > 0 {
		uc.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}
	return uc
}

// Execute runs one capture. It never queues: when the concurrency limit is
// reached it fails with entity.ErrTooManyCaptures right away.
func (uc *CaptureSnapshotUseCase) Execute(ctx context.Context, req entity.CaptureRequest) (*entity.Frame, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "CaptureSnapshotUseCase.Execute")
	defer span.End()

	id := CaptureID(ctx)
	if id == "" {
		id = uuid.New().String()
		ctx = WithCaptureID(ctx, id)
	}

	span.SetAttributes(
		attribute.String("capture.id", id),
		attribute.String("capture.codec", req.Codec),
		attribute.Int("capture.timeout_ms", req.TimeoutMs),
	)

	log := uc.logger.With(
		zap.String("capture_id", id),
		zap.String("codec", req.Codec),
		zap.Int("timeout_ms", req.TimeoutMs),
	)

	if uc.sem != nil {
		if !uc.sem.TryAcquire(1) {
			metrics.CapturesTotal.WithLabelValues(entity.Outcome(entity.ErrTooManyCaptures)).Inc()
			span.SetStatus(codes.Error, entity.ErrTooManyCaptures.Error())
			log.Warn("capture rejected, concurrency limit reached")
			return nil, entity.ErrTooManyCaptures
		}
		defer uc.sem.Release(1)
	}

	metrics.CapturesInFlight.Inc()
	defer metrics.CapturesInFlight.Dec()

	start := time.Now()
	captureCtx, captureSpan := tracer.Start(ctx, "capture_frame")
	frame, err := uc.capturer.Capture(captureCtx, req)
	captureSpan.End()
	elapsed := time.Since(start)

	metrics.CaptureDuration.WithLabelValues(req.Codec).Observe(elapsed.Seconds())
	metrics.CapturesTotal.WithLabelValues(entity.Outcome(err)).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, entity.ErrCaptureCanceled) {
			log.Info("capture canceled", zap.Duration("elapsed", elapsed), zap.Error(err))
		} else {
			log.Error("capture failed",
				zap.String("outcome", entity.Outcome(err)),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
		}
		return nil, err
	}

	metrics.FrameBytes.Observe(float64(frame.Size()))
	span.SetAttributes(attribute.Int("capture.bytes", frame.Size()))

	log.Info("capture completed",
		zap.Int("bytes", frame.Size()),
		zap.Duration("elapsed", elapsed),
	)

	return frame, nil
}
