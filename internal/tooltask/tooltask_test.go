package tooltask

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"buildtasks/internal/envvar"
	"buildtasks/internal/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
}

func newHost(buf *bytes.Buffer) *task.Host {
	log := task.NewLog(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &task.Host{Log: log, Outputs: task.NewOutputs(), Env: envvar.FromEnviron(false, os.Environ())}
}

// shTool runs a shell snippet through /bin/sh.
type shTool struct {
	Common `yaml:",inline"`
	Script string `yaml:"script" validate:"required"`

	stderrAsError bool
	valid         *bool
	override      map[string]string
	ignoreExit    bool
	dir           string
}

func (s *shTool) Name() string     { return "sh-tool" }
func (s *shTool) ToolName() string { return "sh" }

func (s *shTool) CommandLineArgs(h *task.Host, toolPath string) ([]string, error) {
	return []string{"-c", s.Script}, nil
}

func (s *shTool) LogStandardErrorAsError() bool { return s.stderrAsError }

func (s *shTool) ValidateParameters(h *task.Host) bool {
	if s.valid != nil && !*s.valid {
		h.Log.Error("invalid parameters")
		return false
	}
	return true
}

func (s *shTool) EnvironmentOverride(h *task.Host, toolPath string) (map[string]string, error) {
	return s.override, nil
}

func (s *shTool) WorkingDirectory() string { return s.dir }

func (s *shTool) HandleExecutionErrors(h *task.Host, toolName string, exitCode int) bool {
	if s.ignoreExit {
		h.Log.Message(task.ImportanceNormal, "%s failed with exit code %d, ignored", toolName, exitCode)
		return true
	}
	return HandleExecutionErrors(h, toolName, exitCode)
}

func newShTool(script string) *shTool {
	return &shTool{Common: Common{ToolPath: "/bin"}, Script: script}
}

func TestRunLogsOutput(t *testing.T) {
	requireShell(t)

	var buf bytes.Buffer
	h := newHost(&buf)
	tool := newShTool("echo hello; echo there >&2")
	tool.StandardOutputImportance = "high"

	ok, err := Execute(h, tool, &tool.Common)
	require.NoError(t, err)
	require.True(t, ok)

	code, _ := h.Outputs.Get("ExitCode")
	require.Equal(t, "0", code)

	out := buf.String()
	assert.Contains(t, out, "kind=commandline")
	assert.Contains(t, out, "msg=hello importance=high")
	assert.Contains(t, out, "msg=there importance=normal")
}

func TestRunReportsExitCode(t *testing.T) {
	requireShell(t)

	var buf bytes.Buffer
	h := newHost(&buf)
	tool := newShTool("exit 3")

	res, err := Run(h, tool, &tool.Common)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, 3, res.ExitCode)
	require.Equal(t, "/bin/sh", res.ToolPath)
	require.Contains(t, buf.String(), `msg="sh exited with code 3."`)
}

func TestRunFailsOnLoggedErrors(t *testing.T) {
	requireShell(t)

	var buf bytes.Buffer
	h := newHost(&buf)
	tool := newShTool(`echo 'src/a.c(12,4): error C2065: undeclared identifier'`)

	res, err := Run(h, tool, &tool.Common)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, -1, res.ExitCode)

	out := buf.String()
	assert.Contains(t, out, "code=C2065")
	assert.Contains(t, out, "file=src/a.c line=12 column=4")
	assert.NotContains(t, out, "exited with code")
}

func TestRunStandardErrorAsError(t *testing.T) {
	requireShell(t)

	var buf bytes.Buffer
	h := newHost(&buf)
	tool := newShTool("echo oops >&2")
	tool.stderrAsError = true

	res, err := Run(h, tool, &tool.Common)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Contains(t, buf.String(), "level=ERROR msg=oops")
}

func TestRunExitHandlerCanSucceed(t *testing.T) {
	requireShell(t)

	var buf bytes.Buffer
	h := newHost(&buf)
	tool := newShTool("exit 2")
	tool.ignoreExit = true

	ok, err := Execute(h, tool, &tool.Common)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, buf.String(), "sh failed with exit code 2, ignored")
}

func TestRunValidatorStopsBeforeStart(t *testing.T) {
	var buf bytes.Buffer
	h := newHost(&buf)
	tool := newShTool("exit 0")
	invalid := false
	tool.valid = &invalid

	res, err := Run(h, tool, &tool.Common)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.NotContains(t, buf.String(), "commandline")
}

func TestRunRequiredParameters(t *testing.T) {
	var buf bytes.Buffer
	h := newHost(&buf)
	tool := newShTool("")

	_, err := Run(h, tool, &tool.Common)
	require.True(t, task.IsKind(err, task.KindParameter))
	require.Contains(t, err.Error(), "script is required")
}

func TestRunEnvironment(t *testing.T) {
	requireShell(t)

	var buf bytes.Buffer
	h := newHost(&buf)
	tool := newShTool(`echo "tool=$BT_TOOL user=$BT_USER"`)
	tool.override = map[string]string{"BT_TOOL": "a", "BT_USER": "overridden"}
	tool.EnvironmentVariables = []string{"BT_USER=b"}

	_, err := Run(h, tool, &tool.Common)
	require.NoError(t, err)
	require.Contains(t, buf.String(), `msg="tool=a user=b"`)
	require.Contains(t, buf.String(), "BT_USER=b")
}

func TestRunInvalidEnvironmentVariable(t *testing.T) {
	requireShell(t)

	var buf bytes.Buffer
	h := newHost(&buf)
	tool := newShTool("true")
	tool.EnvironmentVariables = []string{"NOEQUALS"}

	_, err := Run(h, tool, &tool.Common)
	require.True(t, task.IsKind(err, task.KindParameter))
}

func TestRunWorkingDirectory(t *testing.T) {
	requireShell(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), nil, 0644))

	var buf bytes.Buffer
	h := newHost(&buf)
	tool := newShTool("ls")
	tool.dir = dir

	_, err := Run(h, tool, &tool.Common)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "msg=marker")
}

func TestRunToolNotFound(t *testing.T) {
	var buf bytes.Buffer
	h := newHost(&buf)
	tool := newShTool("true")
	tool.ToolPath = t.TempDir()

	_, err := Run(h, tool, &tool.Common)
	require.True(t, task.IsKind(err, task.KindToolInvocation))
}

func TestParseCanonical(t *testing.T) {
	c, ok := ParseCanonical(`C:\src\a.cs(10,5): error CS1002: ; expected`)
	require.True(t, ok)
	require.False(t, c.Warning)
	require.Equal(t, task.Event{Code: "CS1002", File: `C:\src\a.cs`, Line: 10, Column: 5, Message: "; expected"}, c.Event)

	c, ok = ParseCanonical("warning: something odd")
	require.True(t, ok)
	require.True(t, c.Warning)
	require.Equal(t, "something odd", c.Event.Message)

	c, ok = ParseCanonical("main.js : Warning JS001 : deprecated call")
	require.True(t, ok)
	require.True(t, c.Warning)
	require.Equal(t, "main.js", c.Event.File)
	require.Equal(t, "JS001", c.Event.Code)

	for _, line := range []string{"Passed   MyTest", "Build succeeded.", "3 errors found"} {
		_, ok := ParseCanonical(line)
		require.False(t, ok, line)
	}
}
