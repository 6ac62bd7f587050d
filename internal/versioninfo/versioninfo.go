// Package versioninfo splits a version string into its components.
package versioninfo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"buildtasks/internal/task"
)

// TaskName is the name of the version parsing task.
const TaskName = "version-info"

// Version is major.minor[.build[.revision]]. Absent components are -1.
type Version struct {
	Major    int
	Minor    int
	Build    int
	Revision int
}

var errComponentCount = errors.New("version must have between two and four components")

// Parse reads a version made of two to four non-negative decimal integers
// separated by dots.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 4 {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, errComponentCount)
	}

	components := [4]int{-1, -1, -1, -1}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || strings.ContainsAny(p, "+-") {
			return Version{}, fmt.Errorf("invalid version %q: component %d is not a non-negative integer", s, i+1)
		}
		n, err := strconv.ParseInt(p, 10, 32)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: component %d: %w", s, i+1, err)
		}
		components[i] = int(n)
	}
	return Version{Major: components[0], Minor: components[1], Build: components[2], Revision: components[3]}, nil
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d", v.Major, v.Minor)
	if v.Build >= 0 {
		s += fmt.Sprintf(".%d", v.Build)
		if v.Revision >= 0 {
			s += fmt.Sprintf(".%d", v.Revision)
		}
	}
	return s
}

// Task publishes the components of Version as Major, Minor, Build and
// Revision.
type Task struct {
	Version string `yaml:"version" validate:"required"`
}

func (t *Task) Name() string { return TaskName }

func (t *Task) Execute(h *task.Host) (bool, error) {
	if err := task.ValidateParameters(TaskName, t); err != nil {
		return false, err
	}
	v, err := Parse(t.Version)
	if err != nil {
		h.Log.ErrorFromErr(err)
		return false, nil
	}
	h.Outputs.SetInt("Major", int64(v.Major))
	h.Outputs.SetInt("Minor", int64(v.Minor))
	h.Outputs.SetInt("Build", int64(v.Build))
	h.Outputs.SetInt("Revision", int64(v.Revision))
	return true, nil
}
