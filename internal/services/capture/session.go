package captureservice

import (
	"context"
	"sync"
	"time"

	"github.com/zanzhit/capture_studio/internal/domain/models"
)

// session is the single active capture context. Timing fields are guarded by
// mu: the capture loop, Pause/Resume and the status reporter all touch them.
type session struct {
	id         string
	cameraID   string
	userID     int
	cfg        models.RecordingConfig
	outputPath string
	workDir    string
	hasAudio   bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	source FrameSource
	frames *frameBuffer

	mu          sync.Mutex
	startTime   time.Time
	pausedAccum time.Duration
	pauseStart  time.Time
}

func (s *session) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.pauseStart.IsZero()
}

// markPause records the pause-start instant. Returns false if already paused.
func (s *session) markPause(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pauseStart.IsZero() {
		return false
	}

	s.pauseStart = now

	return true
}

// markResume folds the open pause interval into the accumulated paused
// duration. Returns false if not paused.
func (s *session) markResume(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pauseStart.IsZero() {
		return false
	}

	s.pausedAccum += now.Sub(s.pauseStart)
	s.pauseStart = time.Time{}

	return true
}

// closePause finalizes an open pause interval at stop time so the reconciled
// elapsed time excludes it.
func (s *session) closePause(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pauseStart.IsZero() {
		return
	}

	s.pausedAccum += now.Sub(s.pauseStart)
	s.pauseStart = time.Time{}
}

func (s *session) elapsed(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return reconciledElapsed(now, s.startTime, s.pausedAccum, s.pauseStart)
}

func (s *session) snapshot(now time.Time) models.RecordingStatus {
	s.mu.Lock()
	paused := !s.pauseStart.IsZero()
	elapsed := reconciledElapsed(now, s.startTime, s.pausedAccum, s.pauseStart)
	wall := now.Sub(s.startTime)
	s.mu.Unlock()

	frameCount := s.frames.Len()

	var rate float64
	if wall > 0 {
		rate = float64(frameCount) / wall.Seconds()
	}

	message := "recording"
	if paused {
		message = "paused"
	}

	return models.RecordingStatus{
		IsActive:   true,
		IsPaused:   paused,
		Elapsed:    elapsed,
		FrameCount: frameCount,
		Rate:       rate,
		Message:    message,
		Timestamp:  now,
	}
}
