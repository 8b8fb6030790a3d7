package captureservice

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOutputPath(t *testing.T) {
	dir := t.TempDir()

	path := resolveOutputPath(dir, "lecture.mp4")
	assert.Equal(t, filepath.Join(dir, "lecture.mp4"), path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "lecture.mp4"), nil, 0o644))

	path = resolveOutputPath(dir, "lecture.mp4")
	assert.Equal(t, filepath.Join(dir, "lecture_1.mp4"), path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "lecture_1.mp4"), nil, 0o644))

	path = resolveOutputPath(dir, "lecture.mp4")
	assert.Equal(t, filepath.Join(dir, "lecture_2.mp4"), path)
}

func TestResolveOutputPath_NoExtension(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip"), nil, 0o644))

	path := resolveOutputPath(dir, "clip")
	assert.Equal(t, filepath.Join(dir, "clip_1"), path)
}
