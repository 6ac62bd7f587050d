package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"buildtasks/internal/batchenv"
	"buildtasks/internal/filetasks"
	"buildtasks/internal/task"
	"buildtasks/internal/tools"
	"buildtasks/internal/versioninfo"
	"buildtasks/internal/xmltasks"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// taskFactories creates an empty task per name usable in a task file.
var taskFactories = map[string]func() task.Task{
	batchenv.TaskName:                func() task.Task { return &batchenv.Task{} },
	batchenv.SetVariableTaskName:     func() task.Task { return &batchenv.SetVariableTask{} },
	filetasks.FileInfoTaskName:       func() task.Task { return &filetasks.FileInfo{} },
	filetasks.RelativePathsTaskName:  func() task.Task { return &filetasks.RelativePaths{} },
	filetasks.ShortPathTaskName:      func() task.Task { return &filetasks.ShortPath{} },
	filetasks.CopyTaskName:           func() task.Task { return &filetasks.Copy{} },
	versioninfo.TaskName:             func() task.Task { return &versioninfo.Task{} },
	tools.MSTestTaskName:             func() task.Task { return &tools.MSTest{} },
	tools.PartCoverTaskName:          func() task.Task { return &tools.PartCover{} },
	tools.NodeJsTaskName:             func() task.Task { return &tools.NodeJs{} },
	tools.NpmTaskName:                func() task.Task { return &tools.NodePackageManager{} },
	tools.SonarQubeTaskName:          func() task.Task { return &tools.SonarQubeRunner{} },
	xmltasks.SchemasValidateTaskName: func() task.Task { return &xmltasks.SchemasValidate{} },
}

func taskNames() []string {
	names := make([]string, 0, len(taskFactories))
	for name := range taskFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// taskFile is the document read by the run command.
type taskFile struct {
	Tasks []taskEntry `yaml:"tasks"`
}

type taskEntry struct {
	Task string    `yaml:"task"`
	With yaml.Node `yaml:"with"`
}

// loadTasks decodes a task file. Parameters not known to a task are an error.
func loadTasks(r io.Reader) ([]task.Task, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f taskFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	tasks := make([]task.Task, 0, len(f.Tasks))
	for i, e := range f.Tasks {
		newTask, ok := taskFactories[e.Task]
		if !ok {
			return nil, fmt.Errorf("tasks[%d]: unknown task %q, known tasks: %v", i, e.Task, taskNames())
		}
		t := newTask()
		if e.With.Kind != 0 {
			if err := decodeParameters(&e.With, t); err != nil {
				return nil, fmt.Errorf("tasks[%d] (%s): %w", i, e.Task, err)
			}
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// decodeParameters re-encodes node because yaml.Node.Decode cannot reject
// unknown fields.
func decodeParameters(node *yaml.Node, t task.Task) error {
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(t)
}

type taskResult struct {
	Task    string         `json:"task" yaml:"task"`
	Outputs map[string]any `json:"outputs" yaml:"outputs"`
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run TASKFILE",
		Short: "Run the tasks listed in a YAML task file in order",
		Long: `Run the tasks listed in a YAML task file in order.

The file lists tasks with their parameters:

  tasks:
    - task: set-env-from-batch
      with:
        batch-file: vcvars.cmd
    - task: version-info
      with:
        version: 1.2.3

Environment changes made by one task are visible to the next. Running stops
at the first task that fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open task file: %w", err)
			}
			defer func() { _ = f.Close() }()

			tasks, err := loadTasks(f)
			if err != nil {
				return &task.Error{Kind: task.KindConfig, Err: fmt.Errorf("%s: %w", args[0], err)}
			}
			return a.runTasks(tasks)
		},
	}
}

// runTasks runs tasks in order and prints the outputs of each one that ran.
func (a *app) runTasks(tasks []task.Task) error {
	text := a.cfg.Output == "" || a.cfg.Output == task.OutputText
	results := []taskResult{}
	var runErr error
	for _, t := range tasks {
		outputs, err := a.execute(t)
		if text {
			if _, werr := fmt.Fprintf(a.stdout, "[%s]\n", t.Name()); werr != nil {
				return werr
			}
			if werr := outputs.Write(a.stdout, task.OutputText); werr != nil {
				return fmt.Errorf("failed to write outputs: %w", werr)
			}
		} else {
			results = append(results, taskResult{Task: t.Name(), Outputs: outputs.Map()})
		}
		if err != nil {
			runErr = err
			break
		}
	}
	if text {
		return runErr
	}

	var werr error
	switch a.cfg.Output {
	case task.OutputJSON:
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		werr = enc.Encode(results)
	case task.OutputYAML:
		enc := yaml.NewEncoder(a.stdout)
		werr = enc.Encode(results)
		if cerr := enc.Close(); werr == nil {
			werr = cerr
		}
	default:
		werr = fmt.Errorf("unknown output format %q", a.cfg.Output)
	}
	if werr != nil && runErr == nil {
		runErr = fmt.Errorf("failed to write outputs: %w", werr)
	}
	return runErr
}
