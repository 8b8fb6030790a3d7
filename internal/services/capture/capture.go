package captureservice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/lithammer/shortuuid/v3"
	"github.com/zanzhit/capture_studio/internal/domain/errs"
	"github.com/zanzhit/capture_studio/internal/domain/models"
	"github.com/zanzhit/capture_studio/internal/lib/events"
	"github.com/zanzhit/capture_studio/internal/lib/sl"
)

// CaptureService owns the session lifecycle: Idle -> Recording -> {Paused <->
// Recording} -> Stopping -> Idle. At most one session is active; Start fails
// with ErrAlreadyRecording otherwise. Failures never leave the machine in an
// error state, they are published on the bus and the service returns to Idle.
type CaptureService struct {
	log          *slog.Logger
	bus          *events.Bus
	audio        AudioRecorder
	encoder      VideoEncoder
	muxer        Muxer
	sessionSaver SessionSaver

	workPath          string
	pollInterval      time.Duration
	statusInterval    time.Duration
	minRate           float64
	maxBufferedFrames int

	mu   sync.Mutex
	sess *session
}

// FrameSource supplies frames on demand; the capture loop drives the cadence.
// Poll returns ok=false when no frame is available, which is expected and not
// an error.
type FrameSource interface {
	Poll() ([]byte, bool)
	IsActive() bool
	Resolution() (width, height int)
}

// AudioRecorder tracks the audio segments of one session across pause/resume
// cycles and merges them before muxing.
type AudioRecorder interface {
	Begin(workDir, sessionID string) error
	Pause() error
	Resume() error
	Finish() []models.AudioSegment
	Merge(dst string) (string, error)
}

type VideoEncoder interface {
	Encode(job models.EncodeJob) error
}

type Muxer interface {
	Mux(videoPath, audioPath, dst string) error
}

type SessionSaver interface {
	Create(sess models.Session) error
	Finish(sess models.Session) error
}

type Options struct {
	WorkPath          string
	PollInterval      time.Duration
	StatusInterval    time.Duration
	MinRate           float64
	MaxBufferedFrames int
}

func New(
	log *slog.Logger,
	bus *events.Bus,
	audio AudioRecorder,
	encoder VideoEncoder,
	muxer Muxer,
	sessionSaver SessionSaver,
	opts Options,
) *CaptureService {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 50 * time.Millisecond
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = 500 * time.Millisecond
	}
	if opts.MinRate <= 0 {
		opts.MinRate = 1
	}

	return &CaptureService{
		log:               log,
		bus:               bus,
		audio:             audio,
		encoder:           encoder,
		muxer:             muxer,
		sessionSaver:      sessionSaver,
		workPath:          opts.WorkPath,
		pollInterval:      opts.PollInterval,
		statusInterval:    opts.StatusInterval,
		minRate:           opts.MinRate,
		maxBufferedFrames: opts.MaxBufferedFrames,
	}
}

func (s *CaptureService) Start(source FrameSource, cameraID string, userID int, cfg models.RecordingConfig) (string, error) {
	const op = "service.capture.Start"

	log := s.log.With(
		slog.String("op", op),
		slog.String("camera_id", cameraID),
		slog.Int("user_id", userID),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess != nil {
		log.Warn("start rejected, session already active", slog.String("session_id", s.sess.id))

		return "", fmt.Errorf("%s: %w", op, errs.ErrAlreadyRecording)
	}

	if err := validator.New().Struct(cfg); err != nil {
		log.Error("invalid recording config", sl.Err(err))

		return "", fmt.Errorf("%s: %w: %w", op, errs.ErrInvalidConfig, err)
	}

	if err := os.MkdirAll(cfg.OutputDir, os.ModePerm); err != nil {
		log.Error("failed to create output directory", sl.Err(err))

		return "", fmt.Errorf("%s: %w: %w", op, errs.ErrDirectoryUnavailable, err)
	}

	sessionID := shortuuid.New()

	workDir := filepath.Join(s.workPath, sessionID)
	if err := os.MkdirAll(workDir, os.ModePerm); err != nil {
		log.Error("failed to create work directory", sl.Err(err))

		return "", fmt.Errorf("%s: %w: %w", op, errs.ErrDirectoryUnavailable, err)
	}

	outputPath := resolveOutputPath(cfg.OutputDir, cfg.FileName)

	ctx, cancel := context.WithCancel(context.Background())

	sess := &session{
		id:         sessionID,
		cameraID:   cameraID,
		userID:     userID,
		cfg:        cfg,
		outputPath: outputPath,
		workDir:    workDir,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		source:     source,
		frames:     newFrameBuffer(),
		startTime:  time.Now(),
	}

	// Audio failure at start is non-fatal: the session continues video-only.
	if cfg.AudioEnabled {
		if s.audio == nil {
			log.Warn("audio requested but no capture provider is configured")

			s.publishError(sessionID, "audio unavailable: no capture provider configured")
		} else if err := s.audio.Begin(workDir, sessionID); err != nil {
			log.Error("failed to start audio capture", sl.Err(err))

			s.publishError(sessionID, "audio capture failed to start, recording without audio")
		} else {
			sess.hasAudio = true
		}
	}

	if err := s.sessionSaver.Create(models.Session{
		SessionID: sessionID,
		CameraID:  cameraID,
		UserID:    userID,
		FilePath:  outputPath,
		StartTime: sess.startTime,
		HasAudio:  sess.hasAudio,
	}); err != nil {
		log.Error("failed to write session start", sl.Err(err))

		s.publishError(sessionID, "failed to journal session start")
	}

	log.Info("recording started",
		slog.String("session_id", sessionID),
		slog.String("output_path", outputPath),
		slog.Bool("audio", sess.hasAudio),
	)

	s.sess = sess

	go s.captureLoop(sess, source)
	go s.statusLoop(sess)

	return sessionID, nil
}

// Pause is valid only while recording; callers that poll state get a plain
// false instead of an error. A session whose context is already cancelled is
// being torn down by Stop and counts as not recording.
func (s *CaptureService) Pause() bool {
	const op = "service.capture.Pause"

	s.mu.Lock()
	sess := s.sess
	s.mu.Unlock()

	if sess == nil || sess.ctx.Err() != nil {
		return false
	}

	if !sess.markPause(time.Now()) {
		return false
	}

	log := s.log.With(slog.String("op", op), slog.String("session_id", sess.id))
	log.Info("recording paused")

	if sess.hasAudio {
		if err := s.audio.Pause(); err != nil {
			log.Error("failed to close audio segment", sl.Err(err))

			s.publishError(sess.id, "failed to close audio segment on pause")
		}
	}

	s.bus.Publish(events.Event{Kind: events.StatusChanged, SessionID: sess.id, Status: sess.snapshot(time.Now())})

	return true
}

func (s *CaptureService) Resume() bool {
	const op = "service.capture.Resume"

	s.mu.Lock()
	sess := s.sess
	s.mu.Unlock()

	if sess == nil || sess.ctx.Err() != nil {
		return false
	}

	if !sess.markResume(time.Now()) {
		return false
	}

	log := s.log.With(slog.String("op", op), slog.String("session_id", sess.id))
	log.Info("recording resumed")

	if sess.hasAudio {
		if err := s.audio.Resume(); err != nil {
			log.Error("failed to open next audio segment", sl.Err(err))

			s.publishError(sess.id, "failed to open audio segment on resume")
		}
	}

	s.bus.Publish(events.Event{Kind: events.StatusChanged, SessionID: sess.id, Status: sess.snapshot(time.Now())})

	return true
}

// Stop joins the capture loop before touching the frame buffer, so encoding
// never races a late frame. The encoder always gets the actual rate computed
// from the reconciled elapsed time, never the source's nominal rate.
func (s *CaptureService) Stop() (string, error) {
	const op = "service.capture.Stop"

	s.mu.Lock()
	sess := s.sess
	if sess == nil {
		s.mu.Unlock()

		return "", fmt.Errorf("%s: %w", op, errs.ErrNotRecording)
	}
	s.sess = nil
	s.mu.Unlock()

	log := s.log.With(slog.String("op", op), slog.String("session_id", sess.id))
	log.Info("stopping recording")

	sess.cancel()
	<-sess.done

	if closer, ok := sess.source.(io.Closer); ok {
		closer.Close()
	}

	stopTime := time.Now()
	sess.closePause(stopTime)
	elapsed := sess.elapsed(stopTime)

	var segments []models.AudioSegment
	if sess.hasAudio {
		segments = s.audio.Finish()
	}

	frames := sess.frames.Drain()
	rate := actualRate(len(frames), elapsed, s.minRate)

	log.Info("timing reconciled",
		slog.Duration("elapsed", elapsed),
		slog.Int("frame_count", len(frames)),
		slog.Float64("actual_rate", rate),
	)

	videoPath := sess.outputPath
	if len(segments) > 0 {
		videoPath = filepath.Join(sess.workDir, "video"+filepath.Ext(sess.outputPath))
	}

	if err := s.encoder.Encode(models.EncodeJob{
		Frames:   frames,
		Rate:     rate,
		Duration: elapsed,
		Width:    sess.cfg.Width,
		Height:   sess.cfg.Height,
		Bitrate:  sess.cfg.Bitrate,
		Codec:    sess.cfg.Codec,
		Dst:      videoPath,
	}); err != nil {
		log.Error("encoding failed", sl.Err(err))

		os.Remove(videoPath)
		s.cleanup(log, sess)
		s.finishSession(log, sess, stopTime, len(frames), rate, false)
		s.publishError(sess.id, "video encoding failed, session aborted")

		return "", fmt.Errorf("%s: %w: %w", op, errs.ErrEncoderFailed, err)
	}

	if len(segments) > 0 {
		s.muxWithFallback(log, sess, videoPath)
	}

	s.cleanup(log, sess)
	s.finishSession(log, sess, stopTime, len(frames), rate, true)

	log.Info("recording completed", slog.String("output_path", sess.outputPath))

	s.bus.Publish(events.Event{
		Kind:       events.Completed,
		SessionID:  sess.id,
		OutputPath: sess.outputPath,
	})

	return sess.outputPath, nil
}

func (s *CaptureService) Status() models.RecordingStatus {
	s.mu.Lock()
	sess := s.sess
	s.mu.Unlock()

	if sess == nil {
		return models.RecordingStatus{
			Message:   "idle",
			Timestamp: time.Now(),
		}
	}

	return sess.snapshot(time.Now())
}

// muxWithFallback combines the encoded video with the merged audio. Any
// failure degrades to the video-only file: video is judged more valuable than
// all-or-nothing correctness, so the session still completes.
func (s *CaptureService) muxWithFallback(log *slog.Logger, sess *session, videoPath string) {
	audioPath, err := s.audio.Merge(filepath.Join(sess.workDir, "audio_merged.wav"))
	if err != nil {
		log.Error("failed to merge audio segments", sl.Err(err))

		s.fallbackVideoOnly(log, sess, videoPath, "audio merge failed, output has no audio")

		return
	}

	if err := s.muxer.Mux(videoPath, audioPath, sess.outputPath); err != nil {
		log.Error("muxing failed", sl.Err(err))

		s.fallbackVideoOnly(log, sess, videoPath, "muxing failed, output has no audio")
	}
}

func (s *CaptureService) fallbackVideoOnly(log *slog.Logger, sess *session, videoPath, reason string) {
	if err := copyFile(videoPath, sess.outputPath); err != nil {
		log.Error("video-only fallback failed", sl.Err(err))
	}

	s.publishError(sess.id, reason)
}

// cleanup removes the session work dir (audio segments, merged audio, temp
// video). Failures do not affect output correctness and are swallowed.
func (s *CaptureService) cleanup(log *slog.Logger, sess *session) {
	var result *multierror.Error

	entries, err := os.ReadDir(sess.workDir)
	if err == nil {
		for _, entry := range entries {
			if err := os.Remove(filepath.Join(sess.workDir, entry.Name())); err != nil {
				result = multierror.Append(result, err)
			}
		}
	} else {
		result = multierror.Append(result, err)
	}

	if err := os.Remove(sess.workDir); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		log.Warn("failed to clean up session artifacts", sl.Err(err))
	}
}

func (s *CaptureService) finishSession(log *slog.Logger, sess *session, stopTime time.Time, frameCount int, rate float64, completed bool) {
	if err := s.sessionSaver.Finish(models.Session{
		SessionID:  sess.id,
		FilePath:   sess.outputPath,
		StopTime:   stopTime,
		FrameCount: frameCount,
		ActualRate: rate,
		HasAudio:   sess.hasAudio,
		Completed:  completed,
	}); err != nil {
		log.Error("failed to write session stop", sl.Err(err))

		s.publishError(sess.id, "failed to journal session stop")
	}
}

func (s *CaptureService) publishError(sessionID, message string) {
	s.bus.Publish(events.Event{
		Kind:      events.ErrorRaised,
		SessionID: sessionID,
		Message:   message,
	})
}

// captureLoop pulls frames until cancelled. An empty poll result is expected
// under-delivery and simply skipped; while paused the loop idles without
// consuming frames. The loop stops the session itself when the configured
// max duration or the frame cap is exceeded.
func (s *CaptureService) captureLoop(sess *session, source FrameSource) {
	defer close(sess.done)

	for {
		select {
		case <-sess.ctx.Done():
			return
		default:
		}

		if sess.isPaused() {
			time.Sleep(s.pollInterval)
			continue
		}

		now := time.Now()
		if sess.cfg.MaxDuration > 0 && sess.elapsed(now) >= sess.cfg.MaxDuration {
			s.log.Info("max duration reached, stopping session", slog.String("session_id", sess.id))

			go s.Stop()

			return
		}

		if data, ok := source.Poll(); ok && len(data) > 0 {
			count := sess.frames.Append(data, now)

			if s.maxBufferedFrames > 0 && count >= s.maxBufferedFrames {
				s.log.Warn("frame buffer cap reached, stopping session", slog.String("session_id", sess.id))

				go s.Stop()

				return
			}
		}

		time.Sleep(s.pollInterval)
	}
}

// statusLoop publishes a status snapshot on a fixed interval for the lifetime
// of the session. It is bound to the session context, so it cannot fire after
// Stop has released the session's resources.
func (s *CaptureService) statusLoop(sess *session) {
	ticker := time.NewTicker(s.statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.ctx.Done():
			return
		case <-ticker.C:
			s.bus.Publish(events.Event{
				Kind:      events.StatusChanged,
				SessionID: sess.id,
				Status:    sess.snapshot(time.Now()),
			})
		}
	}
}
