package models

import "time"

// RecordingConfig is the caller-owned configuration surface for one session.
// FileName carries the container extension; collisions against existing files
// are resolved by suffixing _1, _2 and so on.
type RecordingConfig struct {
	OutputDir    string        `json:"output_dir" validate:"required"`
	FileName     string        `json:"file_name" validate:"required"`
	Width        int           `json:"width" validate:"required,min=16,max=7680"`
	Height       int           `json:"height" validate:"required,min=16,max=4320"`
	Bitrate      int           `json:"bitrate" validate:"min=0"`
	Codec        string        `json:"codec"`
	AudioEnabled bool          `json:"audio_enabled"`
	MaxDuration  time.Duration `json:"max_duration"`
}

// RecordingStatus is a point-in-time snapshot of an active (or idle) session.
// Elapsed excludes paused intervals.
type RecordingStatus struct {
	IsActive   bool          `json:"is_active"`
	IsPaused   bool          `json:"is_paused"`
	Elapsed    time.Duration `json:"elapsed"`
	FrameCount int           `json:"frame_count"`
	Rate       float64       `json:"rate"`
	Message    string        `json:"message"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Session is the journal row for one capture session.
type Session struct {
	SessionID  string    `json:"session_id" db:"session_id"`
	CameraID   string    `json:"camera_id" db:"camera_id"`
	UserID     int       `json:"user_id" db:"user_id"`
	FilePath   string    `json:"file_path" db:"file_path"`
	StartTime  time.Time `json:"start_time" db:"start_time"`
	StopTime   time.Time `json:"stop_time" db:"stop_time"`
	FrameCount int       `json:"frame_count" db:"frame_count"`
	ActualRate float64   `json:"actual_rate" db:"actual_rate"`
	HasAudio   bool      `json:"has_audio" db:"has_audio"`
	Completed  bool      `json:"completed" db:"completed"`
	IsMoved    bool      `json:"is_moved" db:"is_moved"`
}

// AudioSegment is one contiguous audio capture file, bounded by a start/resume
// and the following pause/stop. Segments of a session never overlap and are
// ordered by Index.
type AudioSegment struct {
	Index int
	Path  string
}
