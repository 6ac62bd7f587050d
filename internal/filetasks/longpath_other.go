//go:build !windows

package filetasks

// LongPath returns path unchanged, only Windows limits path lengths.
func LongPath(path string) string {
	return path
}
