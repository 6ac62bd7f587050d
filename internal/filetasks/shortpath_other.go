//go:build !windows

package filetasks

// ShortPathName returns path unchanged, short names only exist on Windows.
func ShortPathName(path string) (string, error) {
	return path, nil
}
