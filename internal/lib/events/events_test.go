package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_FanOut(t *testing.T) {
	bus := NewBus()

	first, cancelFirst := bus.Subscribe(4)
	defer cancelFirst()

	second, cancelSecond := bus.Subscribe(4)
	defer cancelSecond()

	bus.Publish(Event{Kind: Completed, SessionID: "sess-1"})

	for _, ch := range []<-chan Event{first, second} {
		select {
		case e := <-ch:
			assert.Equal(t, Completed, e.Kind)
			assert.Equal(t, "sess-1", e.SessionID)
			assert.False(t, e.Time.IsZero())
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestBus_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBus()

	slow, cancelSlow := bus.Subscribe(1)
	defer cancelSlow()

	fast, cancelFast := bus.Subscribe(8)
	defer cancelFast()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			bus.Publish(Event{Kind: StatusChanged, SessionID: "sess-1"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber channel")
	}

	// The slow subscriber keeps only what fit in its buffer.
	require.Len(t, slow, 1)
	assert.Len(t, fast, 5)
}

func TestBus_CancelClosesChannel(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe(1)
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	// Publishing after cancel must not panic on the closed channel.
	bus.Publish(Event{Kind: ErrorRaised, SessionID: "sess-1"})
}
