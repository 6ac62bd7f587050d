//go:build !windows

package codepage

// Consoles outside Windows emit UTF-8.
func oemCodePage() int {
	return UTF8
}

func ansiCodePage() int {
	return UTF8
}
