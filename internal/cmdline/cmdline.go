// Package cmdline builds argument lists for wrapped tools.
package cmdline

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Builder accumulates the arguments of one command line. Each argument is
// kept separate so that quoting is left to the process start code.
type Builder struct {
	args []string
}

// AppendSwitch appends a literal argument.
func (b *Builder) AppendSwitch(s string) {
	b.args = append(b.args, s)
}

// AppendSwitchIfNotEmpty appends prefix followed by value when value is not
// empty. A prefix ending in a space produces two arguments, "--output" and
// the value. Any other prefix is glued to the value, as in "/category:x".
func (b *Builder) AppendSwitchIfNotEmpty(prefix, value string) {
	if value == "" {
		return
	}
	if name, ok := strings.CutSuffix(prefix, " "); ok {
		if name != "" {
			b.args = append(b.args, name)
		}
		b.args = append(b.args, value)
		return
	}
	b.args = append(b.args, prefix+value)
}

// AppendSwitchesIfNotEmpty calls AppendSwitchIfNotEmpty for every value.
func (b *Builder) AppendSwitchesIfNotEmpty(prefix string, values []string) {
	for _, v := range values {
		b.AppendSwitchIfNotEmpty(prefix, v)
	}
}

// AppendFileNameIfNotEmpty appends a path argument.
func (b *Builder) AppendFileNameIfNotEmpty(path string) {
	if path != "" {
		b.args = append(b.args, path)
	}
}

// AppendTextUnquoted splits raw text the way a shell would and appends the
// resulting words.
func (b *Builder) AppendTextUnquoted(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	words, err := shellquote.Split(text)
	if err != nil {
		return fmt.Errorf("failed to parse arguments %q: %w", text, err)
	}
	b.args = append(b.args, words...)
	return nil
}

// Args returns a copy of the accumulated arguments.
func (b *Builder) Args() []string {
	return append([]string(nil), b.args...)
}

// Len returns the number of arguments.
func (b *Builder) Len() int {
	return len(b.args)
}

// String renders the arguments for display.
func (b *Builder) String() string {
	return shellquote.Join(b.args...)
}
