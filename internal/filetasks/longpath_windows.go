//go:build windows

package filetasks

import (
	"path/filepath"
	"strings"
)

const (
	longPathPrefix    = `\\?\`
	longPathUNCPrefix = `\\?\UNC\`
	// paths from this length on need the prefix to escape MAX_PATH
	longPathThreshold = 248
)

// LongPath prefixes long absolute paths so that the Win32 file functions
// accept them beyond MAX_PATH.
func LongPath(path string) string {
	if len(path) < longPathThreshold || strings.HasPrefix(path, longPathPrefix) || !filepath.IsAbs(path) {
		return path
	}
	if rest, ok := strings.CutPrefix(path, `\\`); ok {
		return longPathUNCPrefix + rest
	}
	return longPathPrefix + path
}
