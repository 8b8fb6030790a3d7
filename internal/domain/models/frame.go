package models

import "time"

// FrameRecord is an owned snapshot of one captured frame. Data is a complete
// encoded picture (JPEG from the MJPEG grabber) and is not shared with the
// source after capture.
type FrameRecord struct {
	Index    int
	Data     []byte
	Captured time.Time
}

// EncodeJob describes one encoder invocation: every frame in order, at exactly
// Rate frames per second. Duration is only consulted when Frames is empty, to
// produce a blank clip of the reconciled length.
type EncodeJob struct {
	Frames   [][]byte
	Rate     float64
	Duration time.Duration
	Width    int
	Height   int
	Bitrate  int
	Codec    string
	Dst      string
}
