package events

import (
	"sync"
	"time"

	"github.com/zanzhit/capture_studio/internal/domain/models"
)

type Kind string

const (
	StatusChanged Kind = "status_changed"
	ErrorRaised   Kind = "error"
	Completed     Kind = "completed"
)

// Event is one notification published by the recording pipeline. Status is set
// for StatusChanged, Message for ErrorRaised, OutputPath for Completed.
type Event struct {
	Kind       Kind
	SessionID  string
	Status     models.RecordingStatus
	Message    string
	OutputPath string
	Time       time.Time
}

// Bus fans events out to subscribers. Publish never blocks: a subscriber whose
// channel is full loses the event, so the capture loop cannot be stalled by a
// slow observer.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[int]chan Event),
	}
}

// Subscribe registers an observer. The returned cancel func must be called
// exactly once; after it returns the channel is closed.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++

	ch := make(chan Event, buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

func (b *Bus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
