package captureservice

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// resolveOutputPath picks a collision-free path for name inside dir, appending
// _1, _2, ... before the extension while the candidate already exists.
func resolveOutputPath(dir, name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	path := filepath.Join(dir, name)
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}

		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, ext))
	}
}

// copyFile is used for the video-only fallback; the work dir and the output
// dir may live on different filesystems, so a plain rename is not enough.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
