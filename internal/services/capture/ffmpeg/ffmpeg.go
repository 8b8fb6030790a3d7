package ffmpegmedia

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/zanzhit/capture_studio/internal/domain/models"
)

// Encoder writes the buffered frames to a video-only file by piping them into
// ffmpeg as an image sequence. The output metadata rate is set to exactly
// job.Rate, so playback duration equals frameCount / rate regardless of how
// unevenly the source delivered.
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Encode(job models.EncodeJob) error {
	const op = "ffmpeg.Encode"

	args := buildEncodeArgs(job)

	cmd := exec.Command("ffmpeg", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if len(job.Frames) == 0 {
		// Blank clip of the reconciled duration; no stdin needed.
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s: %w: %s", op, err, stderr.String())
		}

		return nil
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, frame := range job.Frames {
		if _, err := stdin.Write(frame); err != nil {
			stdin.Close()
			cmd.Wait()

			return fmt.Errorf("%s: %w: %s", op, err, stderr.String())
		}
	}

	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s: %w: %s", op, err, stderr.String())
	}

	return nil
}

// Muxer combines a video-only file and an audio file into one container. The
// video stream is copied as-is; -shortest keeps the tracks time-aligned when
// the audio runs slightly long.
type Muxer struct{}

func NewMuxer() *Muxer {
	return &Muxer{}
}

func (m *Muxer) Mux(videoPath, audioPath, dst string) error {
	const op = "ffmpeg.Mux"

	cmd := exec.Command("ffmpeg", buildMuxArgs(videoPath, audioPath, dst)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", op, err, stderr.String())
	}

	return nil
}

// Concatenator merges WAV segments in order via the concat demuxer.
type Concatenator struct{}

func NewConcatenator() *Concatenator {
	return &Concatenator{}
}

func (c *Concatenator) Concat(segments []string, dst string) error {
	const op = "ffmpeg.Concat"

	listPath := filepath.Join(filepath.Dir(dst), "segments.txt")
	if err := os.WriteFile(listPath, []byte(buildConcatList(segments)), 0o644); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer os.Remove(listPath)

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		dst,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", op, err, stderr.String())
	}

	return nil
}

func buildEncodeArgs(job models.EncodeJob) []string {
	codec := codecName(job.Codec)

	if len(job.Frames) == 0 {
		secs := job.Duration.Seconds()
		if secs <= 0 {
			secs = 1 / job.Rate
		}

		return []string{
			"-y",
			"-f", "lavfi",
			"-i", fmt.Sprintf("color=black:s=%dx%d:r=%.3f", job.Width, job.Height, job.Rate),
			"-t", fmt.Sprintf("%.3f", secs),
			"-c:v", codec,
			"-pix_fmt", "yuv420p",
			job.Dst,
		}
	}

	args := []string{
		"-y",
		"-f", "image2pipe",
		"-framerate", fmt.Sprintf("%.6f", job.Rate),
		"-i", "-",
		"-vf", fmt.Sprintf("scale=%d:%d", job.Width, job.Height),
		"-c:v", codec,
		"-pix_fmt", "yuv420p",
	}

	if job.Bitrate > 0 {
		args = append(args, "-b:v", fmt.Sprintf("%dk", job.Bitrate))
	}

	return append(args, job.Dst)
}

func buildMuxArgs(videoPath, audioPath, dst string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		dst,
	}
}

func buildConcatList(segments []string) string {
	var b strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&b, "file '%s'\n", seg)
	}

	return b.String()
}

func codecName(codec string) string {
	switch strings.ToLower(codec) {
	case "", "h264":
		return "libx264"
	case "h265", "hevc":
		return "libx265"
	case "vp9":
		return "libvpx-vp9"
	default:
		return codec
	}
}
