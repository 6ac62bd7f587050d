package task

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by Outputs.Write.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

type output struct {
	name   string
	value  string
	items  []string
	isList bool
}

// Outputs collects the named results of a task in the order they were set.
// Setting a name twice replaces the earlier value in place.
type Outputs struct {
	mu      sync.Mutex
	entries []output
}

func NewOutputs() *Outputs {
	return &Outputs{}
}

func (o *Outputs) put(out output) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.entries {
		if o.entries[i].name == out.name {
			o.entries[i] = out
			return
		}
	}
	o.entries = append(o.entries, out)
}

// Set stores a single value.
func (o *Outputs) Set(name, value string) {
	o.put(output{name: name, value: value})
}

// SetBool stores a boolean as "true" or "false".
func (o *Outputs) SetBool(name string, value bool) {
	o.Set(name, strconv.FormatBool(value))
}

// SetInt stores an integer in decimal.
func (o *Outputs) SetInt(name string, value int64) {
	o.Set(name, strconv.FormatInt(value, 10))
}

// SetList stores an item list. An empty list is kept as an empty output.
func (o *Outputs) SetList(name string, items []string) {
	o.put(output{name: name, items: append([]string(nil), items...), isList: true})
}

// Get returns the single value stored under name.
func (o *Outputs) Get(name string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.entries {
		if e.name == name && !e.isList {
			return e.value, true
		}
	}
	return "", false
}

// List returns the items stored under name.
func (o *Outputs) List(name string) ([]string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.entries {
		if e.name == name && e.isList {
			return append([]string(nil), e.items...), true
		}
	}
	return nil, false
}

// Map returns the outputs as a map of strings and string slices.
func (o *Outputs) Map() map[string]any {
	o.mu.Lock()
	defer o.mu.Unlock()
	m := make(map[string]any, len(o.entries))
	for _, e := range o.entries {
		if e.isList {
			items := e.items
			if items == nil {
				items = []string{}
			}
			m[e.name] = items
		} else {
			m[e.name] = e.value
		}
	}
	return m
}

// Write renders the outputs. The text format prints Name=Value per line and
// one Name=Item line per list item.
func (o *Outputs) Write(w io.Writer, format string) error {
	switch format {
	case "", OutputText:
		o.mu.Lock()
		entries := append([]output(nil), o.entries...)
		o.mu.Unlock()
		for _, e := range entries {
			if !e.isList {
				if _, err := fmt.Fprintf(w, "%s=%s\n", e.name, e.value); err != nil {
					return err
				}
				continue
			}
			for _, item := range e.items {
				if _, err := fmt.Fprintf(w, "%s=%s\n", e.name, item); err != nil {
					return err
				}
			}
		}
		return nil
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(o.Map())
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()
		return enc.Encode(o.Map())
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
