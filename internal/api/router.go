// Package api serves the snapshot HTTP endpoint.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/fiapx/fiapx-snapshot-service/internal/domain/entity"
	"github.com/fiapx/fiapx-snapshot-service/internal/usecase"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const CaptureIDHeader = "X-Capture-Id"

// maxTimeoutMs is the largest timeout_ms that still fits in a time.Duration.
const maxTimeoutMs = math.MaxInt64 / int64(time.Millisecond)

type SnapshotService interface {
	Execute(ctx context.Context, req entity.CaptureRequest) (*entity.Frame, error)
}

type RouterConfig struct {
	DefaultTimeoutMs int
	// MaxTimeoutMs rejects larger timeout_ms values; zero disables the check.
	MaxTimeoutMs int
}

type Router struct {
	snapshots SnapshotService
	cfg       RouterConfig
	logger    *zap.Logger
}

func NewRouter(snapshots SnapshotService, cfg RouterConfig, logger *zap.Logger) *Router {
	if cfg.DefaultTimeoutMs <= 0 {
		cfg.DefaultTimeoutMs = entity.DefaultTimeoutMs
	}
	return &Router{snapshots: snapshots, cfg: cfg, logger: logger}
}

// Handler wraps the router with OpenTelemetry server spans.
func (rt *Router) Handler() http.Handler {
	return otelhttp.NewHandler(rt, "snapshot")
}

type errorResponse struct {
	Error string `json:"error"`
}

type snapshotResponse struct {
	Format string `json:"format"`
	Size   int    `json:"size"`
	Data   []byte `json:"data"` // encoded as standard base64
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		rt.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Only GET is supported"})
		return
	}
	if r.URL.Path != "/" && r.URL.Path != "/snapshot" {
		rt.writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
		return
	}

	req, err := rt.parseRequest(r)
	if err != nil {
		rt.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id := uuid.New().String()
	w.Header().Set(CaptureIDHeader, id)
	ctx := usecase.WithCaptureID(r.Context(), id)

	frame, err := rt.snapshots.Execute(ctx, req)
	if err != nil {
		rt.writeCaptureError(w, r, id, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")

	if req.Format == entity.ResponseFormatBinary {
		w.Header().Set("Content-Type", frame.ContentType())
		w.Header().Set("Content-Length", strconv.Itoa(frame.Size()))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(frame.Data); err != nil {
			rt.logger.Warn("write frame", zap.String("capture_id", id), zap.Error(err))
		}
		return
	}

	rt.writeJSON(w, http.StatusOK, snapshotResponse{
		Format: frame.ImageFormat(),
		Size:   frame.Size(),
		Data:   frame.Data,
	})
}

func (rt *Router) parseRequest(r *http.Request) (entity.CaptureRequest, error) {
	q := r.URL.Query()
	req := entity.NewCaptureRequest()
	req.TimeoutMs = rt.cfg.DefaultTimeoutMs
	req.Format = entity.ParseResponseFormat(q.Get("response"))

	if codec := q.Get("codec"); codec != "" {
		req.Codec = codec
	}

	if raw := q.Get("timeout_ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			return req, errors.New("timeout_ms must be a positive integer")
		}
		if int64(ms) > maxTimeoutMs {
			return req, fmt.Errorf("timeout_ms must not exceed %d", maxTimeoutMs)
		}
		if rt.cfg.MaxTimeoutMs > 0 && ms > rt.cfg.MaxTimeoutMs {
			return req, fmt.Errorf("timeout_ms must not exceed %d", rt.cfg.MaxTimeoutMs)
		}
		req.TimeoutMs = ms
	}

	return req, nil
}

func (rt *Router) writeCaptureError(w http.ResponseWriter, r *http.Request, id string, err error) {
	if errors.Is(err, entity.ErrTooManyCaptures) {
		rt.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Too many concurrent captures"})
		return
	}
	if r.Context().Err() != nil {
		// Client went away; nobody is left to read the response.
		rt.logger.Info("client disconnected during capture", zap.String("capture_id", id))
		return
	}
	rt.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func (rt *Router) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		rt.logger.Warn("write response", zap.Int("status", status), zap.Error(err))
	}
}
