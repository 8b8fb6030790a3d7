package audioservice

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/zanzhit/capture_studio/internal/domain/models"
	"github.com/zanzhit/capture_studio/internal/lib/sl"
)

// SegmentManager tracks the audio segments of one session. Every Begin/Resume
// opens a new segment file with the next index, every Pause/Finish closes the
// open one; segments never overlap in wall-clock time. All methods serialize
// on mu: pause and resume arrive from HTTP handlers while stop tears the
// session down, and the provider must never be told to capture into a work
// dir that is already gone. Once Finish has run, Pause and Resume are no-ops
// until the next Begin.
type SegmentManager struct {
	log      *slog.Logger
	provider CaptureProvider
	concat   Concatenator

	mu       sync.Mutex
	workDir  string
	segments []models.AudioSegment
	open     bool
	finished bool
}

// CaptureProvider owns the hardware audio stream. It writes samples to a file
// continuously between StartCapture and StopCapture.
type CaptureProvider interface {
	Initialize(sampleRate, channels int) error
	StartCapture(path string) error
	StopCapture() error
	IsCapturing() bool
}

type Concatenator interface {
	Concat(segments []string, dst string) error
}

func New(log *slog.Logger, provider CaptureProvider, concat Concatenator) *SegmentManager {
	return &SegmentManager{
		log:      log,
		provider: provider,
		concat:   concat,
	}
}

// Begin resets the manager for a new session and opens segment 0.
func (m *SegmentManager) Begin(workDir, sessionID string) error {
	const op = "service.audio.Begin"

	m.mu.Lock()
	defer m.mu.Unlock()

	m.workDir = workDir
	m.segments = nil
	m.open = false
	m.finished = false

	m.log.Info("starting audio capture",
		slog.String("op", op),
		slog.String("session_id", sessionID),
	)

	return m.openSegment(op)
}

// Pause closes the current segment; its file is finalized by the provider.
func (m *SegmentManager) Pause() error {
	const op = "service.audio.Pause"

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finished || !m.open {
		return nil
	}

	m.open = false

	if err := m.provider.StopCapture(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Resume opens the next segment with the following index.
func (m *SegmentManager) Resume() error {
	const op = "service.audio.Resume"

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finished || m.open {
		return nil
	}

	return m.openSegment(op)
}

// Finish closes whatever segment is open and returns every segment of the
// session in index order. The manager stays finished until the next Begin, so
// a late Resume cannot reopen capture into a torn-down session. Stop failures
// here are logged and ignored: the already written part of the segment is
// still usable.
func (m *SegmentManager) Finish() []models.AudioSegment {
	const op = "service.audio.Finish"

	m.mu.Lock()
	defer m.mu.Unlock()

	m.finished = true

	if m.open {
		m.open = false

		if err := m.provider.StopCapture(); err != nil {
			m.log.Error("failed to stop audio capture", slog.String("op", op), sl.Err(err))
		}
	}

	return m.segments
}

// Merge produces one continuous audio file. A single segment is used
// directly. When concatenation of several segments fails, the first segment
// is used instead: partial audio is preferable to pipeline failure.
func (m *SegmentManager) Merge(dst string) (string, error) {
	const op = "service.audio.Merge"

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.segments) == 0 {
		return "", fmt.Errorf("%s: no audio segments", op)
	}

	if len(m.segments) == 1 {
		return m.segments[0].Path, nil
	}

	paths := make([]string, len(m.segments))
	for i, seg := range m.segments {
		paths[i] = seg.Path
	}

	if err := m.concat.Concat(paths, dst); err != nil {
		m.log.Error("failed to concatenate audio segments, using first segment",
			slog.String("op", op),
			sl.Err(err),
		)

		return m.segments[0].Path, nil
	}

	return dst, nil
}

func (m *SegmentManager) openSegment(op string) error {
	index := len(m.segments)
	path := filepath.Join(m.workDir, fmt.Sprintf("audio_%03d.wav", index))

	if err := m.provider.StartCapture(path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.segments = append(m.segments, models.AudioSegment{Index: index, Path: path})
	m.open = true

	return nil
}
