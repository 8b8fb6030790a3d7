package mjpeg

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Source reads an MJPEG stream produced by an ffmpeg child process and keeps
// the most recent complete frame available for polling. The pipeline polls at
// its own cadence; frames arriving faster than the poll interval are
// overwritten, slower arrival simply yields empty polls.
type Source struct {
	width  int
	height int
	cmd    *exec.Cmd

	mu     sync.Mutex
	latest []byte
	active bool
}

func NewSource(streamURL string, width, height int) (*Source, error) {
	const op = "mjpeg.NewSource"

	args := []string{"-hide_banner", "-loglevel", "error"}

	if strings.HasPrefix(streamURL, "rtsp://") {
		args = append(args, "-rtsp_transport", "tcp")
	} else if strings.HasPrefix(streamURL, "/") {
		args = append(args, "-f", "v4l2")
	}

	args = append(args,
		"-i", streamURL,
		"-f", "mjpeg",
		"-q:v", "4",
		"-",
	)

	cmd := exec.Command("ffmpeg", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Source{
		width:  width,
		height: height,
		cmd:    cmd,
		active: true,
	}

	go s.readLoop(bufio.NewReaderSize(stdout, 1<<20))

	return s, nil
}

// Poll hands out the latest frame, at most once. The returned slice is owned
// by the caller.
func (s *Source) Poll() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest == nil {
		return nil, false
	}

	frame := s.latest
	s.latest = nil

	return frame, true
}

func (s *Source) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active
}

func (s *Source) Resolution() (int, int) {
	return s.width, s.height
}

func (s *Source) Close() error {
	s.cmd.Process.Kill()
	s.cmd.Wait()

	s.mu.Lock()
	s.active = false
	s.mu.Unlock()

	return nil
}

var (
	jpegSOI = []byte{0xff, 0xd8}
	jpegEOI = []byte{0xff, 0xd9}
)

// readLoop splits the concatenated JPEG stream on SOI/EOI markers and stores
// each complete picture as the latest frame.
func (s *Source) readLoop(r *bufio.Reader) {
	defer func() {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
	}()

	var (
		frame   bytes.Buffer
		inFrame bool
		prev    byte
	)

	buf := make([]byte, 32*1024)

	for {
		n, err := r.Read(buf)
		for i := 0; i < n; i++ {
			b := buf[i]

			if !inFrame {
				if prev == jpegSOI[0] && b == jpegSOI[1] {
					inFrame = true
					frame.Reset()
					frame.Write(jpegSOI)
				}
				prev = b
				continue
			}

			frame.WriteByte(b)

			if prev == jpegEOI[0] && b == jpegEOI[1] {
				data := make([]byte, frame.Len())
				copy(data, frame.Bytes())

				s.mu.Lock()
				s.latest = data
				s.mu.Unlock()

				inFrame = false
			}

			prev = b
		}

		if err != nil {
			return
		}
	}
}
