// Package tooltask runs an external command line tool on behalf of a task:
// it resolves the executable, builds its environment, streams its output
// through the drain engine into the task log and turns the exit code into
// a task result.
package tooltask

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"buildtasks/internal/codepage"
	"buildtasks/internal/drain"
	"buildtasks/internal/envvar"
	"buildtasks/internal/task"

	"github.com/kballard/go-shellquote"
)

// Tool is implemented by every wrapped tool.
type Tool interface {
	Name() string
	// ToolName is the default executable file name, such as "node.exe".
	ToolName() string
	// CommandLineArgs returns the arguments passed to the executable at toolPath.
	CommandLineArgs(h *task.Host, toolPath string) ([]string, error)
}

// Locator finds the executable when no tool path was configured. An empty
// result means the tool could not be found.
type Locator interface {
	FullPathToTool(h *task.Host, exe string) string
}

// Validator checks parameters that struct tags cannot express. It logs its
// own errors and returns false to fail the task without starting the tool.
type Validator interface {
	ValidateParameters(h *task.Host) bool
}

// OutputLogger classifies one line of tool output.
type OutputLogger interface {
	LogEventsFromTextOutput(h *task.Host, line string, importance task.Importance)
}

// EnvironmentOverrider returns variables to set in the tool's environment.
type EnvironmentOverrider interface {
	EnvironmentOverride(h *task.Host, toolPath string) (map[string]string, error)
}

// WorkingDirectoryProvider returns the directory the tool runs in.
type WorkingDirectoryProvider interface {
	WorkingDirectory() string
}

// ExitHandler decides what a non-zero exit code means. Returning true
// makes the task succeed anyway.
type ExitHandler interface {
	HandleExecutionErrors(h *task.Host, toolName string, exitCode int) bool
}

// StandardErrorPolicy tells whether stderr lines are logged as errors.
// Tools that do not implement it log stderr like stdout.
type StandardErrorPolicy interface {
	LogStandardErrorAsError() bool
}

// Common holds the parameters shared by every wrapped tool.
type Common struct {
	// ToolPath is the directory holding the executable.
	ToolPath string `yaml:"tool-path"`
	// ToolExe overrides the executable file name.
	ToolExe string `yaml:"tool-exe"`
	// EnvironmentVariables are NAME=VALUE pairs applied after the tool's own overrides.
	EnvironmentVariables     []string `yaml:"environment-variables"`
	StandardOutputImportance string   `yaml:"standard-output-importance" validate:"omitempty,oneof=low normal high"`
	StandardErrorImportance  string   `yaml:"standard-error-importance" validate:"omitempty,oneof=low normal high"`
	// Encoding overrides the OEM code page used to decode the tool's output.
	Encoding string `yaml:"encoding"`

	Recorder drain.Recorder `yaml:"-"`
}

// Result describes one tool run.
type Result struct {
	ToolPath string
	Args     []string
	ExitCode int
	Success  bool
}

// ToolCommon gives access to the shared parameters through any tool
// embedding Common.
func (c *Common) ToolCommon() *Common { return c }

// Exe returns the executable file name of t.
func (c *Common) Exe(t Tool) string {
	if c.ToolExe != "" {
		return c.ToolExe
	}
	return t.ToolName()
}

// Execute runs t and publishes its ExitCode.
func Execute(h *task.Host, t Tool, c *Common) (bool, error) {
	res, err := Run(h, t, c)
	if res != nil {
		h.Outputs.SetInt("ExitCode", int64(res.ExitCode))
	}
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

// Run validates the parameters of t, starts the tool and logs its output
// until it exits.
func Run(h *task.Host, t Tool, c *Common) (*Result, error) {
	name := t.Name()
	if err := task.ValidateParameters(name, t); err != nil {
		return nil, err
	}
	stdoutImportance, _ := task.ParseImportance(c.StandardOutputImportance)
	stderrImportance, _ := task.ParseImportance(c.StandardErrorImportance)

	if v, ok := t.(Validator); ok && !v.ValidateParameters(h) {
		return &Result{ExitCode: -1}, nil
	}

	toolPath, err := resolve(h, t, c)
	if err != nil {
		return nil, err
	}
	exe := filepath.Base(toolPath)

	args, err := t.CommandLineArgs(h, toolPath)
	if err != nil {
		return nil, task.Errorf(task.KindParameter, name, "%w", err)
	}

	overrides := map[string]string{}
	if o, ok := t.(EnvironmentOverrider); ok {
		tool, err := o.EnvironmentOverride(h, toolPath)
		if err != nil {
			return nil, task.Errorf(task.KindConfig, name, "%w", err)
		}
		for k, v := range tool {
			overrides[k] = v
		}
	}
	for _, kv := range c.EnvironmentVariables {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, task.Errorf(task.KindParameter, name, "invalid environment variable %q, expected NAME=VALUE", kv)
		}
		overrides[k] = v
	}

	enc, err := codepage.Lookup(c.Encoding)
	if err != nil {
		return nil, task.Errorf(task.KindConfig, name, "%w", err)
	}

	cmd := exec.Command(toolPath, args...)
	if w, ok := t.(WorkingDirectoryProvider); ok {
		cmd.Dir = w.WorkingDirectory()
	}
	cmd.Env = envvar.Environ(h.Env)
	if len(overrides) > 0 {
		cmd.Env = envvar.Merge(cmd.Env, overrides, runtime.GOOS == "windows")
		logOverrides(h.Log, overrides)
	}

	h.Log.CommandLine(shellquote.Join(append([]string{toolPath}, args...)...))

	session, err := drain.Start(cmd, drain.Options{Encoding: enc, Recorder: c.Recorder})
	if err != nil {
		return nil, task.Errorf(task.KindLaunch, name, "%w", err)
	}

	logLine := func(line string, importance task.Importance) {
		if l, ok := t.(OutputLogger); ok {
			l.LogEventsFromTextOutput(h, line, importance)
			return
		}
		LogMessageFromText(h.Log, line, importance)
	}
	stderrAsError := false
	if p, ok := t.(StandardErrorPolicy); ok {
		stderrAsError = p.LogStandardErrorAsError()
	}

	outcome, err := session.Wait(drain.Handlers{
		Stdout: func(line string) { logLine(line, stdoutImportance) },
		Stderr: func(line string) {
			if stderrAsError {
				h.Log.Error("%s", line)
				return
			}
			logLine(line, stderrImportance)
		},
	})

	res := &Result{ToolPath: toolPath, Args: args, ExitCode: outcome.ExitCode}
	if err != nil {
		return res, task.Errorf(task.KindIO, name, "%w", err)
	}

	// Errors reported in the output fail the run even when the tool exits cleanly
	if res.ExitCode == 0 && h.Log.HasLoggedErrors() {
		res.ExitCode = -1
	}
	if res.ExitCode == 0 {
		res.Success = true
		return res, nil
	}

	if e, ok := t.(ExitHandler); ok {
		res.Success = e.HandleExecutionErrors(h, exe, res.ExitCode)
		return res, nil
	}
	HandleExecutionErrors(h, exe, res.ExitCode)
	return res, nil
}

// HandleExecutionErrors is the default reaction to a failed run. It logs an
// error unless the output already produced one.
func HandleExecutionErrors(h *task.Host, toolName string, exitCode int) bool {
	if !h.Log.HasLoggedErrors() {
		h.Log.Error("%s exited with code %d.", toolName, exitCode)
	}
	return false
}

func resolve(h *task.Host, t Tool, c *Common) (string, error) {
	name := t.Name()
	exe := c.Exe(t)

	var path string
	switch {
	case c.ToolPath != "":
		path = filepath.Join(c.ToolPath, exe)
	default:
		if l, ok := t.(Locator); ok {
			path = l.FullPathToTool(h, exe)
		} else if p, err := exec.LookPath(exe); err == nil {
			path = p
		}
	}
	if path == "" {
		return "", task.Errorf(task.KindToolInvocation, name, "%s could not be found, set tool-path", exe)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", task.Errorf(task.KindToolInvocation, name, "failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", task.Errorf(task.KindToolInvocation, name, "the specified executable %s is invalid: %w", abs, err)
	}
	if info.IsDir() {
		return "", task.Errorf(task.KindToolInvocation, name, "the specified executable %s is a directory", abs)
	}
	return abs, nil
}

func logOverrides(log *task.Log, overrides map[string]string) {
	names := make([]string, 0, len(overrides))
	for k := range overrides {
		names = append(names, k)
	}
	sort.Strings(names)
	log.Message(task.ImportanceLow, "Environment variables passed to tool:")
	for _, k := range names {
		log.Message(task.ImportanceLow, "  %s=%s", k, overrides[k])
	}
}
