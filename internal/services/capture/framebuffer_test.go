package captureservice

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameBuffer_OrderPreserved(t *testing.T) {
	buf := newFrameBuffer()

	for i := 0; i < 10; i++ {
		count := buf.Append([]byte(fmt.Sprintf("frame-%d", i)), time.Now())
		assert.Equal(t, i+1, count)
	}

	require.Equal(t, 10, buf.Len())

	frames := buf.Drain()
	require.Len(t, frames, 10)

	for i, frame := range frames {
		assert.Equal(t, fmt.Sprintf("frame-%d", i), string(frame))
	}
}

func TestFrameBuffer_DrainEmpties(t *testing.T) {
	buf := newFrameBuffer()
	buf.Append([]byte("only"), time.Now())

	require.Len(t, buf.Drain(), 1)
	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, buf.Drain())
}
