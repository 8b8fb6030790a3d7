package capturehandler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanzhit/capture_studio/internal/domain/errs"
	"github.com/zanzhit/capture_studio/internal/domain/models"
	authmiddleware "github.com/zanzhit/capture_studio/internal/http-server/middleware/auth"
	captureservice "github.com/zanzhit/capture_studio/internal/services/capture"
)

type stubSource struct {
	closed bool
}

func (s *stubSource) Poll() ([]byte, bool)   { return nil, false }
func (s *stubSource) IsActive() bool         { return true }
func (s *stubSource) Resolution() (int, int) { return 640, 480 }
func (s *stubSource) Close() error {
	s.closed = true

	return nil
}

type stubRecorder struct {
	startErr error
	started  bool
}

func (r *stubRecorder) Start(source captureservice.FrameSource, cameraID string, userID int, cfg models.RecordingConfig) (string, error) {
	if r.startErr != nil {
		return "", r.startErr
	}

	r.started = true

	return "sess-1", nil
}

func (r *stubRecorder) Stop() (string, error)          { return "", nil }
func (r *stubRecorder) Pause() bool                    { return false }
func (r *stubRecorder) Resume() bool                   { return false }
func (r *stubRecorder) Status() models.RecordingStatus { return models.RecordingStatus{} }

type stubProvider struct {
	source captureservice.FrameSource
}

func (p *stubProvider) Source(cameraID string) (models.Camera, captureservice.FrameSource, error) {
	return models.Camera{CameraID: cameraID}, p.source, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startRequest(t *testing.T) *http.Request {
	t.Helper()

	body := `{"camera_id":"cam-1","config":{"output_dir":"/tmp/out","file_name":"a.mp4","width":640,"height":480}}`

	req := httptest.NewRequest(http.MethodPost, "/recordings/start", bytes.NewBufferString(body))
	ctx := context.WithValue(req.Context(), authmiddleware.UserContextKey, models.User{Id: 1, Email: "op@studio.local"})

	return req.WithContext(ctx)
}

func TestStart_RejectedStartClosesSource(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "already recording", err: errs.ErrAlreadyRecording, wantStatus: http.StatusConflict},
		{name: "invalid config", err: errs.ErrInvalidConfig, wantStatus: http.StatusBadRequest},
		{name: "directory unavailable", err: errs.ErrDirectoryUnavailable, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &stubSource{}
			rec := &stubRecorder{startErr: fmt.Errorf("service.capture.Start: %w", tt.err)}

			h := New(testLogger(), rec, &stubProvider{source: source})

			w := httptest.NewRecorder()
			h.Start(w, startRequest(t))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, source.closed, "rejected start must close the frame source")
		})
	}
}

func TestStart_SuccessKeepsSourceOpen(t *testing.T) {
	source := &stubSource{}
	rec := &stubRecorder{}

	h := New(testLogger(), rec, &stubProvider{source: source})

	w := httptest.NewRecorder()
	h.Start(w, startRequest(t))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, rec.started)
	assert.False(t, source.closed, "a running session owns its source")
	assert.Contains(t, w.Body.String(), "sess-1")
}
