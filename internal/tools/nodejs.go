package tools

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"buildtasks/internal/cmdline"
	"buildtasks/internal/filetasks"
	"buildtasks/internal/task"
	"buildtasks/internal/tooltask"
)

const nodeInstallKey = `SOFTWARE\Node.js`

var (
	// ANSI color sequences and the bell character
	nodeInvalidCharacters = regexp.MustCompile(`\x1b\[\d+m|\a`)
	nodeWarningRegex      = regexp.MustCompile(`<WARN>\s*(?:(?P<code>\w+)\s*,\s*)?(?P<message>.+?)\s*</WARN>`)
)

// NodeJs runs a Node.js script.
type NodeJs struct {
	tooltask.Common `yaml:",inline"`

	// Arguments are split like a shell command line.
	Arguments string `yaml:"arguments"`
	// FailOnError defaults to true. When false, a non-zero exit code is
	// only reported as a message.
	FailOnError *bool  `yaml:"fail-on-error"`
	WorkingDir  string `yaml:"working-directory"`
	// PathAdditions are prepended to PATH.
	PathAdditions []string `yaml:"path-additions"`

	Registry Registry `yaml:"-"`
}

func (t *NodeJs) Name() string     { return NodeJsTaskName }
func (t *NodeJs) ToolName() string { return exeName("node") }

func (t *NodeJs) Execute(h *task.Host) (bool, error) {
	return tooltask.Execute(h, t, &t.Common)
}

func (t *NodeJs) CommandLineArgs(h *task.Host, toolPath string) ([]string, error) {
	var b cmdline.Builder
	if err := b.AppendTextUnquoted(t.Arguments); err != nil {
		return nil, err
	}
	return b.Args(), nil
}

// FullPathToTool looks for the Node.js installation in the registry, in the
// program files directories and finally in the working directory.
func (t *NodeJs) FullPathToTool(h *task.Host, exe string) string {
	if dir := t.registryInstallPath(h); dir != "" {
		return filepath.Join(dir, exe)
	}

	for _, v := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
		root, ok := h.Env.Lookup(v)
		if !ok || root == "" {
			continue
		}
		p := filepath.Join(root, "nodejs", exe)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}

	if t.WorkingDir != "" {
		if dir, err := filepath.Abs(t.WorkingDir); err == nil {
			return filepath.Join(dir, exe)
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(wd, exe)
}

func (t *NodeJs) registryInstallPath(h *task.Host) string {
	reg := registryOr(t.Registry)
	keys := []string{nodeInstallKey}
	if is64Bit {
		keys = append(keys, wow6432(nodeInstallKey))
	}

	for _, hive := range []Hive{LocalMachine, CurrentUser} {
		for _, key := range keys {
			if !reg.KeyExists(hive, key) {
				continue
			}
			h.Log.Message(task.ImportanceLow, "Node.js registry key found in \"%s\\%s\"", hive, key)
			p, ok := reg.StringValue(hive, key, "InstallPath")
			if !ok || p == "" {
				return ""
			}
			dir := filepath.Clean(p)
			h.Log.Message(task.ImportanceLow, "Node.js path found in registry: \"%s\"", dir)
			return dir
		}
	}
	return ""
}

func (t *NodeJs) WorkingDirectory() string { return t.WorkingDir }

func (t *NodeJs) LogStandardErrorAsError() bool { return true }

// EnvironmentOverride puts PathAdditions and the Node.js directory in front
// of PATH, using short names so that spaces do not break child scripts.
func (t *NodeJs) EnvironmentOverride(h *task.Host, toolPath string) (map[string]string, error) {
	var parts []string
	for _, p := range t.PathAdditions {
		parts = append(parts, shortPathOrSelf(p))
	}
	parts = append(parts, shortPathOrSelf(filepath.Dir(toolPath)))
	if path, ok := h.Env.Lookup("PATH"); ok && path != "" {
		parts = append(parts, path)
	}
	return map[string]string{"PATH": strings.Join(parts, string(os.PathListSeparator))}, nil
}

// LogEventsFromTextOutput strips terminal control characters and turns
// <WARN> tags into warnings.
func (t *NodeJs) LogEventsFromTextOutput(h *task.Host, line string, importance task.Importance) {
	line = nodeInvalidCharacters.ReplaceAllString(line, "")

	if m := nodeWarningRegex.FindStringSubmatch(line); m != nil {
		h.Log.WarningCode(task.Event{
			Subcategory: "node",
			Code:        m[nodeWarningRegex.SubexpIndex("code")],
			Message:     m[nodeWarningRegex.SubexpIndex("message")],
		})
		return
	}
	tooltask.LogMessageFromText(h.Log, line, task.ImportanceNormal)
}

func (t *NodeJs) HandleExecutionErrors(h *task.Host, toolName string, exitCode int) bool {
	if t.FailOnError != nil && !*t.FailOnError {
		h.Log.Message(task.ImportanceNormal, "%s exited with code %d.", toolName, exitCode)
		return true
	}
	return tooltask.HandleExecutionErrors(h, toolName, exitCode)
}

func shortPathOrSelf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	short, err := filetasks.ShortPathName(abs)
	if err != nil || short == "" {
		return abs
	}
	return short
}
