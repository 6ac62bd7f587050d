package task

import (
	"errors"
	"fmt"
)

// Kind classifies why a task could not run.
type Kind string

const (
	// KindToolInvocation means the tool or script to run could not be found.
	KindToolInvocation Kind = "tool_invocation"
	// KindLaunch means the child process could not be started.
	KindLaunch Kind = "launch"
	// KindIO means reading the child's output failed.
	KindIO Kind = "io"
	// KindConfig means the requested combination of settings is not supported.
	KindConfig Kind = "config"
	// KindParameter means a task parameter is missing or malformed.
	KindParameter Kind = "parameter"
)

// Error is returned by tasks for fatal conditions.
type Error struct {
	Kind Kind
	Task string
	Err  error
}

func (e *Error) Error() string {
	if e.Task == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Task, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, taskName, format string, args ...any) *Error {
	return &Error{Kind: kind, Task: taskName, Err: fmt.Errorf(format, args...)}
}

// IsKind reports whether err wraps an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}
