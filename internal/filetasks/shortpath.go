package filetasks

import (
	"path/filepath"

	"buildtasks/internal/task"
)

// ShortPathTaskName is the name of the short path task.
const ShortPathTaskName = "short-path"

// ShortPath converts a path to its short (8.3) form.
type ShortPath struct {
	Input string `yaml:"input" validate:"required"`
}

func (t *ShortPath) Name() string { return ShortPathTaskName }

func (t *ShortPath) Execute(h *task.Host) (bool, error) {
	if err := task.ValidateParameters(ShortPathTaskName, t); err != nil {
		return false, err
	}
	full, err := filepath.Abs(t.Input)
	if err != nil {
		return false, task.Errorf(task.KindParameter, ShortPathTaskName, "failed to resolve %s: %w", t.Input, err)
	}

	short, err := ShortPathName(full)
	if err != nil {
		h.Log.ErrorFromErr(err)
		return false, nil
	}
	h.Outputs.Set("Output", short)
	return true, nil
}
