package tools

import (
	"path/filepath"
	"regexp"

	"buildtasks/internal/cmdline"
	"buildtasks/internal/task"
	"buildtasks/internal/tooltask"
)

const (
	defaultPartCoverVersion = "4.0"
	partCoverComponentsKey  = `SOFTWARE\Microsoft\Windows\CurrentVersion\Installer\UserData\S-1-5-18\Components\`
)

// partCoverComponents maps a target framework version to the installer
// component holding the PartCover directory.
var partCoverComponents = map[string]string{
	"4.0": "82FDEC2C38A025247A99E66B5F26490D",
	"3.5": "22814841D06BA814A97DF67A13409D72",
	"3.0": "22814841D06BA814A97DF67A13409D72",
	"2.0": "22814841D06BA814A97DF67A13409D72",
}

// Lines the profiler prints once the target is running.
var partCoverOutputRegex = regexp.MustCompile(`^(\[\d{5}\] \[\d{5}\] |\s*<)`)

// PartCover runs a target program under the PartCover coverage profiler.
type PartCover struct {
	tooltask.Common `yaml:",inline"`

	Include          []string `yaml:"include"`
	Exclude          []string `yaml:"exclude"`
	Output           string   `yaml:"output"`
	Target           string   `yaml:"target" validate:"required"`
	TargetWorkingDir string   `yaml:"target-working-dir"`
	TargetArgs       string   `yaml:"target-args"`
	// ToolsVersion selects the installation, 4.0 when empty.
	ToolsVersion string `yaml:"tools-version"`

	Registry Registry `yaml:"-"`

	started bool
}

func (t *PartCover) Name() string     { return PartCoverTaskName }
func (t *PartCover) ToolName() string { return "PartCover.exe" }

func (t *PartCover) Execute(h *task.Host) (bool, error) {
	t.started = false
	return tooltask.Execute(h, t, &t.Common)
}

func (t *PartCover) CommandLineArgs(h *task.Host, toolPath string) ([]string, error) {
	var b cmdline.Builder
	// --output is ignored by some versions when it comes last
	b.AppendSwitchIfNotEmpty("--output ", t.Output)
	b.AppendSwitch("--register")
	b.AppendSwitchIfNotEmpty("--target ", t.Target)
	b.AppendSwitchIfNotEmpty("--target-work-dir ", t.TargetWorkingDir)
	b.AppendSwitchIfNotEmpty("--target-args ", t.TargetArgs)
	b.AppendSwitchesIfNotEmpty("--include ", t.Include)
	b.AppendSwitchesIfNotEmpty("--exclude ", t.Exclude)
	return b.Args(), nil
}

// FullPathToTool reads the installation directory registered by the
// PartCover installer for ToolsVersion.
func (t *PartCover) FullPathToTool(h *task.Host, exe string) string {
	version := t.ToolsVersion
	if version == "" {
		version = defaultPartCoverVersion
	}
	component, ok := partCoverComponents[version]
	if !ok {
		return ""
	}

	key := partCoverComponentsKey + component + `\`
	reg := registryOr(t.Registry)
	if !reg.KeyExists(LocalMachine, key) {
		h.Log.Error("PartCover %s could not be found (registry key \"%s\" is missing)", version, key)
		return ""
	}
	dir, _ := reg.StringValue(LocalMachine, key, component)
	if dir == "" {
		h.Log.Error("PartCover root directory could not be found")
		return ""
	}
	return filepath.Join(dir, exe)
}

// WorkingDirectory runs the profiler in the target's working directory.
func (t *PartCover) WorkingDirectory() string {
	if t.TargetWorkingDir == "" {
		return ""
	}
	dir, err := filepath.Abs(t.TargetWorkingDir)
	if err != nil {
		return t.TargetWorkingDir
	}
	return dir
}

// LogEventsFromTextOutput keeps the profiler banner quiet. Output of the
// target is logged normally once the profiler reported it as started.
func (t *PartCover) LogEventsFromTextOutput(h *task.Host, line string, importance task.Importance) {
	if partCoverOutputRegex.MatchString(line) {
		t.started = true
		tooltask.LogMessageFromText(h.Log, line, task.ImportanceLow)
		return
	}
	if t.started {
		tooltask.LogMessageFromText(h.Log, line, task.ImportanceNormal)
		return
	}
	tooltask.LogMessageFromText(h.Log, line, task.ImportanceLow)
}
