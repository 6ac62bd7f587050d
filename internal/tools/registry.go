package tools

import (
	"strconv"
	"strings"
)

// Hive is a registry root key.
type Hive int

const (
	LocalMachine Hive = iota
	CurrentUser
)

func (h Hive) String() string {
	if h == CurrentUser {
		return "HKEY_CURRENT_USER"
	}
	return "HKEY_LOCAL_MACHINE"
}

// Registry reads string values of the Windows registry.
type Registry interface {
	// KeyExists reports whether the key can be opened.
	KeyExists(hive Hive, path string) bool
	// StringValue returns the named value of a key.
	StringValue(hive Hive, path, name string) (string, bool)
}

// is64Bit reports whether the process uses 64 bit pointers, in which case
// 32 bit installers register their keys below Wow6432Node.
var is64Bit = strconv.IntSize == 64

// wow6432 inserts Wow6432Node after the SOFTWARE root of path.
func wow6432(path string) string {
	if rest, ok := strings.CutPrefix(path, `SOFTWARE\`); ok {
		return `SOFTWARE\Wow6432Node\` + rest
	}
	return path
}

// MapRegistry is an in-memory Registry keyed by hive, key path and value
// name. Key paths compare case-insensitively, like the real registry.
type MapRegistry map[Hive]map[string]map[string]string

func (m MapRegistry) key(hive Hive, path string) (map[string]string, bool) {
	keys, ok := m[hive]
	if !ok {
		return nil, false
	}
	for k, values := range keys {
		if strings.EqualFold(k, path) {
			return values, true
		}
	}
	return nil, false
}

func (m MapRegistry) KeyExists(hive Hive, path string) bool {
	_, ok := m.key(hive, path)
	return ok
}

func (m MapRegistry) StringValue(hive Hive, path, name string) (string, bool) {
	values, ok := m.key(hive, path)
	if !ok {
		return "", false
	}
	v, ok := values[name]
	return v, ok
}
