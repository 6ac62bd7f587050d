package batchenv

import (
	"buildtasks/internal/task"
)

// SetVariableTaskName is the name of the single variable task.
const SetVariableTaskName = "set-env"

// SetVariableTask sets one environment variable in the current process.
type SetVariableTask struct {
	Variable string `yaml:"variable" validate:"required"`
	Value    string `yaml:"value"`
}

func (t *SetVariableTask) Name() string { return SetVariableTaskName }

func (t *SetVariableTask) Execute(h *task.Host) (bool, error) {
	if err := task.ValidateParameters(SetVariableTaskName, t); err != nil {
		return false, err
	}
	if err := h.Env.Set(t.Variable, t.Value); err != nil {
		return false, task.Errorf(task.KindParameter, SetVariableTaskName, "%w", err)
	}
	h.Log.Message(task.ImportanceLow, "Environment variable %%%s%% set to %q.", t.Variable, t.Value)
	return true, nil
}
