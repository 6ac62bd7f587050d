// Package envvar abstracts the process-wide environment table so that tasks
// mutating it can run against an in-memory copy in tests.
package envvar

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// Environment reads and writes variables by name, process-wide.
type Environment interface {
	Lookup(name string) (string, bool)
	Set(name, value string) error
}

// System is the environment of the current process. Name comparison follows
// the platform: case-insensitive on Windows, exact elsewhere.
type System struct{}

func (System) Lookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

func (System) Set(name, value string) error {
	if err := os.Setenv(name, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	return nil
}

func (System) Environ() []string {
	return os.Environ()
}

// Environ returns the full NAME=VALUE table of env when it can enumerate
// its variables, and the process environment otherwise.
func Environ(env Environment) []string {
	if e, ok := env.(interface{ Environ() []string }); ok {
		return e.Environ()
	}
	return os.Environ()
}

// Merge returns environ with the variables in overrides replaced or added.
// With foldCase, names of environ and overrides compare case-insensitively.
func Merge(environ []string, overrides map[string]string, foldCase bool) []string {
	m := FromEnviron(foldCase, environ)
	for name, value := range overrides {
		m.put(name, value)
	}
	return m.Environ()
}

// Map is an in-memory environment.
type Map struct {
	mu       sync.Mutex
	foldCase bool
	vars     map[string]entry
	sets     int
}

type entry struct {
	name  string
	value string
}

// NewMap returns an empty environment. With foldCase, names compare
// case-insensitively and keep the spelling of the first assignment.
func NewMap(foldCase bool) *Map {
	return &Map{foldCase: foldCase, vars: make(map[string]entry)}
}

// NewPlatformMap returns an empty environment using the name semantics of
// the running platform.
func NewPlatformMap() *Map {
	return NewMap(runtime.GOOS == "windows")
}

// FromEnviron builds a Map from NAME=VALUE pairs.
func FromEnviron(foldCase bool, environ []string) *Map {
	m := NewMap(foldCase)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		m.put(name, value)
	}
	return m
}

func (m *Map) key(name string) string {
	if m.foldCase {
		return strings.ToUpper(name)
	}
	return name
}

func (m *Map) put(name, value string) {
	k := m.key(name)
	if e, ok := m.vars[k]; ok {
		name = e.name
	}
	m.vars[k] = entry{name: name, value: value}
}

func (m *Map) Lookup(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.vars[m.key(name)]
	return e.value, ok
}

func (m *Map) Set(name, value string) error {
	if name == "" || strings.ContainsRune(name, '=') {
		return fmt.Errorf("invalid variable name %q", name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(name, value)
	m.sets++
	return nil
}

// Sets returns how many times Set succeeded.
func (m *Map) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// Environ returns the variables as sorted NAME=VALUE pairs.
func (m *Map) Environ() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.vars))
	for _, e := range m.vars {
		out = append(out, e.name+"="+e.value)
	}
	sort.Strings(out)
	return out
}
