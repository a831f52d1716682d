//go:build unix

package ffmpeg

import (
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/fiapx/fiapx-snapshot-service/internal/domain/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeScript writes an executable shell script standing in for ffmpeg.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newTestRunner() *Runner {
	return NewRunner(zap.NewNop())
}

func TestRun_Success(t *testing.T) {
	payload := make([]byte, 256*1024)
	_, err := rand.Read(payload)
	require.NoError(t, err)

	dataPath := filepath.Join(t.TempDir(), "frame.bin")
	require.NoError(t, os.WriteFile(dataPath, payload, 0o644))
	bin := writeScript(t, `exec cat "$1"`)

	res, err := newTestRunner().Run(context.Background(), port.RunSpec{
		Binary:  bin,
		Args:    []string{dataPath},
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.False(t, res.TimedOut)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, payload, res.Stdout)
	assert.Empty(t, res.Stderr)
}

func TestRun_NonZeroExit(t *testing.T) {
	bin := writeScript(t, `echo boom >&2; exit 2`)

	res, err := newTestRunner().Run(context.Background(), port.RunSpec{
		Binary:  bin,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.False(t, res.TimedOut)
	assert.Equal(t, 2, res.ExitCode)
	assert.Contains(t, string(res.Stderr), "boom")
}

func TestRun_StdoutAndStderrKeptApart(t *testing.T) {
	bin := writeScript(t, `printf out1; printf err1 >&2; printf out2; printf err2 >&2`)

	res, err := newTestRunner().Run(context.Background(), port.RunSpec{
		Binary:  bin,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "out1out2", string(res.Stdout))
	assert.Equal(t, "err1err2", string(res.Stderr))
}

func TestRun_Timeout(t *testing.T) {
	bin := writeScript(t, `exec sleep 30`)
	limit := 200 * time.Millisecond

	start := time.Now()
	res, err := newTestRunner().Run(context.Background(), port.RunSpec{
		Binary:  bin,
		Timeout: limit,
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.GreaterOrEqual(t, elapsed, limit)
	assert.Less(t, elapsed, 3*time.Second)

	// The process has been killed and reaped.
	assert.ErrorIs(t, syscall.Kill(res.PID, 0), syscall.ESRCH)
}

func TestRun_ExitBeforeTimeoutWins(t *testing.T) {
	bin := writeScript(t, `printf ok`)

	res, err := newTestRunner().Run(context.Background(), port.RunSpec{
		Binary:  bin,
		Timeout: 300 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.False(t, res.TimedOut)

	// Outlive the timer; the settled result must not change.
	time.Sleep(400 * time.Millisecond)
	assert.False(t, res.TimedOut)
	assert.Equal(t, "ok", string(res.Stdout))
}

func TestRun_ContextCanceled(t *testing.T) {
	bin := writeScript(t, `exec sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	res, err := newTestRunner().Run(ctx, port.RunSpec{
		Binary:  bin,
		Timeout: 10 * time.Second,
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestRun_BinaryNotFound(t *testing.T) {
	_, err := newTestRunner().Run(context.Background(), port.RunSpec{
		Binary:  "nonexistent-ffmpeg-xyz-123",
		Timeout: time.Second,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent-ffmpeg-xyz-123")
}

func TestRun_NotExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-exec")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o644))

	_, err := newTestRunner().Run(context.Background(), port.RunSpec{
		Binary:  path,
		Timeout: time.Second,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestSettlement_FirstWins(t *testing.T) {
	s := newSettlement()
	first := &port.RunResult{ExitCode: 0}

	assert.True(t, s.settle(first, nil))
	assert.False(t, s.settle(&port.RunResult{TimedOut: true}, nil))
	assert.False(t, s.settle(nil, assert.AnError))

	res, err := s.outcome()
	assert.NoError(t, err)
	assert.Same(t, first, res)
}
