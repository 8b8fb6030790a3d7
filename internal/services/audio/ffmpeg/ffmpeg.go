package ffmpegaudio

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// Provider captures from a PulseAudio source to WAV files by driving an
// ffmpeg process per segment. StopCapture interrupts the process so ffmpeg
// finalizes the WAV header instead of leaving a truncated file.
type Provider struct {
	device     string
	sampleRate int
	channels   int
	cmd        *exec.Cmd
}

func New(device string) *Provider {
	if device == "" {
		device = "default"
	}

	return &Provider{device: device}
}

func (p *Provider) Initialize(sampleRate, channels int) error {
	const op = "audio.ffmpeg.Initialize"

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.sampleRate = sampleRate
	p.channels = channels

	return nil
}

func (p *Provider) StartCapture(path string) error {
	const op = "audio.ffmpeg.StartCapture"

	if p.cmd != nil {
		return fmt.Errorf("%s: capture already running", op)
	}

	cmd := exec.Command("ffmpeg",
		"-y",
		"-f", "pulse",
		"-i", p.device,
		"-ac", strconv.Itoa(p.channels),
		"-ar", strconv.Itoa(p.sampleRate),
		path,
	)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.cmd = cmd

	return nil
}

func (p *Provider) StopCapture() error {
	const op = "audio.ffmpeg.StopCapture"

	if p.cmd == nil {
		return nil
	}

	cmd := p.cmd
	p.cmd = nil

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		cmd.Process.Kill()

		return fmt.Errorf("%s: %w", op, err)
	}

	// ffmpeg exits non-zero on SIGINT; the file is still finalized.
	cmd.Wait()

	return nil
}

func (p *Provider) IsCapturing() bool {
	return p.cmd != nil
}
