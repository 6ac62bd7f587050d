//go:build windows

package filetasks

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// ShortPathName returns the short form of an absolute path. The path must
// exist.
func ShortPathName(path string) (string, error) {
	p, err := windows.UTF16PtrFromString(LongPath(path))
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", path, err)
	}

	buf := make([]uint16, windows.MAX_PATH)
	for {
		n, err := windows.GetShortPathName(p, &buf[0], uint32(len(buf)))
		if err != nil {
			return "", fmt.Errorf("failed to get short path of %s: %w", path, err)
		}
		// n includes the terminating NUL when the buffer was too small
		if n <= uint32(len(buf)) {
			return windows.UTF16ToString(buf[:n]), nil
		}
		buf = make([]uint16, n)
	}
}
