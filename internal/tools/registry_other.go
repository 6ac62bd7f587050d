//go:build !windows

package tools

// SystemRegistry returns an empty registry on platforms that have none.
func SystemRegistry() Registry {
	return MapRegistry{}
}
