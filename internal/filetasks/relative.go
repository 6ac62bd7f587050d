package filetasks

import (
	"os"
	"path/filepath"
	"strings"

	"buildtasks/internal/task"
)

// RelativePathsTaskName is the name of the relative path task.
const RelativePathsTaskName = "relative-paths"

// RelativePaths converts paths so that they are relative to a base
// directory.
type RelativePaths struct {
	Inputs []string `yaml:"inputs" validate:"required"`
	// BaseDirectory defaults to the current directory.
	BaseDirectory string `yaml:"base-directory"`
}

func (t *RelativePaths) Name() string { return RelativePathsTaskName }

func (t *RelativePaths) Execute(h *task.Host) (bool, error) {
	if err := task.ValidateParameters(RelativePathsTaskName, t); err != nil {
		return false, err
	}

	base := t.BaseDirectory
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return false, task.Errorf(task.KindIO, RelativePathsTaskName, "failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return false, task.Errorf(task.KindParameter, RelativePathsTaskName, "failed to resolve %s: %w", base, err)
	}

	outputs := make([]string, 0, len(t.Inputs))
	for _, in := range t.Inputs {
		rel, err := Relative(base, in)
		if err != nil {
			h.Log.Warning("%s cannot be made relative to %s, keeping it absolute: %v", in, base, err)
		}
		outputs = append(outputs, rel)
	}
	h.Outputs.SetList("Outputs", outputs)
	return true, nil
}

// Relative returns path relative to the directory base. Paths below base
// start with "." and a separator, others with "..". When no relative path
// exists, the absolute path is returned along with the error.
func Relative(base, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, err
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil {
		return abs, err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return rel, nil
	}
	return "." + string(filepath.Separator) + rel, nil
}
