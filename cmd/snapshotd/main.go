package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fiapx/fiapx-snapshot-service/internal/api"
	"github.com/fiapx/fiapx-snapshot-service/internal/infra/config"
	"github.com/fiapx/fiapx-snapshot-service/internal/infra/ffmpeg"
	"github.com/fiapx/fiapx-snapshot-service/internal/infra/metrics"
	"github.com/fiapx/fiapx-snapshot-service/internal/infra/tracing"
	"github.com/fiapx/fiapx-snapshot-service/internal/usecase"
	"github.com/fiapx/fiapx-snapshot-service/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting fiapx-snapshot-service",
		zap.String("ffmpeg_bin", cfg.FFmpegBin),
		zap.Int("max_concurrent", cfg.MaxConcurrent),
		zap.Int("max_timeout_ms", cfg.MaxTimeoutMs),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else if tp != nil {
		defer tp.Shutdown(context.Background())
	}

	runner := ffmpeg.NewRunner(log.Named("runner"))
	extractor := ffmpeg.NewExtractor(cfg.FFmpegBin, cfg.RTSPURL, runner, log.Named("ffmpeg"))

	uc := usecase.NewCaptureSnapshotUseCase(extractor, log.Named("capture"), usecase.CaptureSnapshotConfig{
		MaxConcurrent: cfg.MaxConcurrent,
	})

	router := api.NewRouter(uc, api.RouterConfig{
		DefaultTimeoutMs: cfg.DefaultTimeoutMs,
		MaxTimeoutMs:     cfg.MaxTimeoutMs,
	}, log.Named("api"))

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("snapshot server listening", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-serveErr:
		if err != nil {
			log.Error("snapshot server error", zap.Error(err))
		}
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("snapshot server shutdown", zap.Error(err))
	}
	if metricsSrv != nil {
		metricsSrv.Shutdown(shutdownCtx)
	}

	log.Info("fiapx-snapshot-service stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "fiapx-snapshot-service: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
