package port

import (
	"context"

	"github.com/fiapx/fiapx-snapshot-service/internal/domain/entity"
)

type FrameCapturer interface {
	Capture(ctx context.Context, req entity.CaptureRequest) (*entity.Frame, error)
}
