package captureservice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconciledElapsed(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		now         time.Time
		pausedAccum time.Duration
		pauseStart  time.Time
		want        time.Duration
	}{
		{
			name: "no pauses",
			now:  start.Add(10 * time.Second),
			want: 10 * time.Second,
		},
		{
			name:        "closed pause excluded",
			now:         start.Add(10 * time.Second),
			pausedAccum: 3 * time.Second,
			want:        7 * time.Second,
		},
		{
			name:        "open pause counts up to now",
			now:         start.Add(10 * time.Second),
			pausedAccum: 2 * time.Second,
			pauseStart:  start.Add(6 * time.Second),
			want:        4 * time.Second,
		},
		{
			name:        "never negative",
			now:         start.Add(time.Second),
			pausedAccum: 5 * time.Second,
			want:        0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reconciledElapsed(tt.now, start, tt.pausedAccum, tt.pauseStart)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActualRate(t *testing.T) {
	tests := []struct {
		name    string
		frames  int
		elapsed time.Duration
		floor   float64
		want    float64
	}{
		{name: "normal", frames: 100, elapsed: 10 * time.Second, floor: 1, want: 10},
		{name: "slow source keeps fractional rate", frames: 5, elapsed: 50 * time.Second, floor: 1, want: 0.1},
		{name: "zero elapsed floors", frames: 10, elapsed: 0, floor: 1, want: 1},
		{name: "zero frames floors", frames: 0, elapsed: 10 * time.Second, floor: 2, want: 2},
		{name: "invalid floor defaults to one", frames: 0, elapsed: 0, floor: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := actualRate(tt.frames, tt.elapsed, tt.floor)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
