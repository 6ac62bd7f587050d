package batchenv

import (
	"os"
	"path/filepath"

	"buildtasks/internal/codepage"
	"buildtasks/internal/drain"
	"buildtasks/internal/envvar"
	"buildtasks/internal/task"
)

// TaskName is the name of the batch environment task.
const TaskName = "set-env-from-batch"

// Task executes a batch file and synchronizes the environment variables it
// sets with the current process.
type Task struct {
	BatchFile              string `yaml:"batch-file" validate:"required"`
	BatchArguments         string `yaml:"batch-arguments"`
	EnableExtensions       *bool  `yaml:"enable-extensions"`
	EnableDelayedExpansion *bool  `yaml:"enable-delayed-expansion"`
	// Encoding overrides the OEM code page used to decode the child's output.
	Encoding         string `yaml:"encoding"`
	WorkingDirectory string `yaml:"working-directory"`

	Shell    Shell          `yaml:"-"`
	Recorder drain.Recorder `yaml:"-"`
}

// Result describes one completed run.
type Result struct {
	Success       bool
	ExitCode      int
	Changes       []Record
	WindowsSdkDir string
}

func (t *Task) Name() string { return TaskName }

// Execute runs the script and publishes Success, ExitCode, Changes and,
// when the dump contains it, WindowsSdkDir.
func (t *Task) Execute(h *task.Host) (bool, error) {
	res, err := t.Run(h)
	if res != nil {
		h.Outputs.SetBool("Success", res.Success)
		h.Outputs.SetInt("ExitCode", int64(res.ExitCode))
		changes := make([]string, 0, len(res.Changes))
		for _, c := range res.Changes {
			changes = append(changes, c.String())
		}
		h.Outputs.SetList("Changes", changes)
		if res.WindowsSdkDir != "" {
			h.Outputs.Set(WindowsSdkDir, res.WindowsSdkDir)
		}
	}
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

// Run executes the script and applies the captured changes to h.Env.
// A nil Result means nothing was started.
func (t *Task) Run(h *task.Host) (*Result, error) {
	if err := task.ValidateParameters(TaskName, t); err != nil {
		return nil, err
	}

	script, err := filepath.Abs(t.BatchFile)
	if err != nil {
		return nil, task.Errorf(task.KindToolInvocation, TaskName, "failed to resolve %s: %w", t.BatchFile, err)
	}
	info, err := os.Stat(script)
	if err != nil {
		return nil, task.Errorf(task.KindToolInvocation, TaskName, "batch file %s not found: %w", t.BatchFile, err)
	}
	if info.IsDir() {
		return nil, task.Errorf(task.KindToolInvocation, TaskName, "batch file %s is a directory", t.BatchFile)
	}

	enc, err := codepage.Lookup(t.Encoding)
	if err != nil {
		return nil, task.Errorf(task.KindConfig, TaskName, "%w", err)
	}

	shell := t.Shell
	if shell == nil {
		shell = DefaultShell()
	}
	inv, err := shell.Build(Request{
		Script:                 script,
		Arguments:              t.BatchArguments,
		Dir:                    t.WorkingDirectory,
		EnableExtensions:       t.EnableExtensions,
		EnableDelayedExpansion: t.EnableDelayedExpansion,
	})
	if err != nil {
		return nil, task.Errorf(task.KindConfig, TaskName, "%w", err)
	}
	cmd, err := inv.Command()
	if err != nil {
		return nil, task.Errorf(task.KindConfig, TaskName, "%w", err)
	}
	cmd.Env = envvar.Environ(h.Env)

	h.Log.CommandLine(inv.String())

	session, err := drain.Start(cmd, drain.Options{Encoding: enc, Recorder: t.Recorder})
	if err != nil {
		return nil, task.Errorf(task.KindLaunch, TaskName, "%w", err)
	}

	applier := NewApplier(h.Env, h.Log, WindowsSdkDir)
	outcome, err := session.Wait(drain.Handlers{
		Stderr: func(line string) { h.Log.Error("%s", line) },
		Stdout: func(line string) { applier.Apply(line) },
	})

	res := &Result{
		ExitCode: outcome.ExitCode,
		Changes:  applier.Changes(),
	}
	if dir, ok := applier.Watched(); ok {
		res.WindowsSdkDir = dir
	}
	if err != nil {
		return res, task.Errorf(task.KindIO, TaskName, "%w", err)
	}
	res.Success = outcome.Success
	return res, nil
}
