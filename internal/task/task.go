// Package task defines the contract between a build task and the process
// hosting it: parameters come in as struct fields, log records go out through
// a severity-classified sink and results are published as named outputs.
package task

import (
	"buildtasks/internal/envvar"
)

// Task is a single unit of build work.
//
// Execute returns false when the task failed in an expected way (a tool
// exited with a non-zero code, a file could not be copied). A non-nil error
// is reserved for conditions that prevented the task from running at all.
type Task interface {
	Name() string
	Execute(h *Host) (bool, error)
}

// Host carries the services a task may use during Execute.
type Host struct {
	Log     *Log
	Outputs *Outputs
	Env     envvar.Environment
}

// NewHost returns a host logging to log, backed by the real process environment.
func NewHost(log *Log) *Host {
	return &Host{
		Log:     log,
		Outputs: NewOutputs(),
		Env:     envvar.System{},
	}
}
