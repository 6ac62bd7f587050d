//go:build windows

package tools

import (
	"golang.org/x/sys/windows/registry"
)

func rootKey(hive Hive) registry.Key {
	if hive == CurrentUser {
		return registry.CURRENT_USER
	}
	return registry.LOCAL_MACHINE
}

type systemRegistry struct{}

// SystemRegistry returns the registry of the running machine.
func SystemRegistry() Registry {
	return systemRegistry{}
}

func (systemRegistry) KeyExists(hive Hive, path string) bool {
	k, err := registry.OpenKey(rootKey(hive), path, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	_ = k.Close()
	return true
}

func (systemRegistry) StringValue(hive Hive, path, name string) (string, bool) {
	k, err := registry.OpenKey(rootKey(hive), path, registry.QUERY_VALUE)
	if err != nil {
		return "", false
	}
	defer k.Close()

	v, _, err := k.GetStringValue(name)
	if err != nil {
		return "", false
	}
	return v, true
}
