package captureservice

import (
	"sync"
	"time"

	"github.com/zanzhit/capture_studio/internal/domain/models"
)

// frameBuffer holds the captured frames of one session in arrival order.
// Append transfers ownership of data to the buffer; Drain transfers the whole
// sequence to the encoder and leaves the buffer empty.
type frameBuffer struct {
	mu     sync.Mutex
	frames []models.FrameRecord
}

func newFrameBuffer() *frameBuffer {
	return &frameBuffer{}
}

func (b *frameBuffer) Append(data []byte, captured time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.frames = append(b.frames, models.FrameRecord{
		Index:    len(b.frames),
		Data:     data,
		Captured: captured,
	})

	return len(b.frames)
}

func (b *frameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.frames)
}

func (b *frameBuffer) Drain() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := make([][]byte, len(b.frames))
	for i, frame := range b.frames {
		data[i] = frame.Data
	}

	b.frames = nil

	return data
}
