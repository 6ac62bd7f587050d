package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"buildtasks/internal/cmdline"
	"buildtasks/internal/task"
	"buildtasks/internal/tooltask"
)

// npm actions.
const (
	NpmInstall   = "install"
	NpmDedupe    = "dedupe"
	NpmRunScript = "run-script"
	NpmUpdate    = "update"
)

const gitInstallKey = `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\Git_is1`

var (
	npmErrorRegex   = regexp.MustCompile(`^(?:npm\s+)?ERR!\s+(?P<message>.+)?$`)
	npmWarningRegex = regexp.MustCompile(`^(?:npm\s+)?WARN\s+(?P<message>.+)?$`)
)

// ParseNpmAction accepts an action in any case, with or without dashes:
// "RunScript", "run-script" and "runscript" are the same. Empty means install.
func ParseNpmAction(s string) (string, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "")) {
	case "", "install":
		return NpmInstall, nil
	case "dedupe":
		return NpmDedupe, nil
	case "runscript":
		return NpmRunScript, nil
	case "update":
		return NpmUpdate, nil
	default:
		return "", fmt.Errorf("unknown npm action %q", s)
	}
}

// NodePackageManager runs npm through the npm-cli.js script shipped with
// Node.js.
type NodePackageManager struct {
	NodeJs `yaml:",inline"`

	Action string `yaml:"action"`
	// Only is all, development or production.
	Only        string `yaml:"only"`
	RegistryURL string `yaml:"registry"`
	Cache       string `yaml:"cache"`
}

func (t *NodePackageManager) Name() string { return NpmTaskName }

func (t *NodePackageManager) Execute(h *task.Host) (bool, error) {
	return tooltask.Execute(h, t, &t.Common)
}

func (t *NodePackageManager) CommandLineArgs(h *task.Host, toolPath string) ([]string, error) {
	action, err := ParseNpmAction(t.Action)
	if err != nil {
		return nil, err
	}

	var b cmdline.Builder
	b.AppendFileNameIfNotEmpty(filepath.Join(filepath.Dir(toolPath), "node_modules", "npm", "bin", "npm-cli.js"))
	b.AppendSwitch(action)
	switch strings.ToLower(t.Only) {
	case "", "all":
	case "development", "production":
		b.AppendSwitchIfNotEmpty("--only=", strings.ToLower(t.Only))
	default:
		return nil, fmt.Errorf("unknown npm only value %q, expected all, development or production", t.Only)
	}
	b.AppendSwitch("--no-bin-links")
	b.AppendSwitch("--no-color")
	b.AppendSwitch("--no-progress")
	b.AppendSwitchIfNotEmpty("--registry ", t.RegistryURL)
	b.AppendSwitchIfNotEmpty("--cache ", t.Cache)

	if v, ok := h.Env.Lookup("GYP_MSVS_VERSION"); ok && strings.TrimSpace(v) != "" {
		b.AppendSwitchIfNotEmpty("--msvs_version=", v)
	}

	args, err := t.NodeJs.CommandLineArgs(h, toolPath)
	if err != nil {
		return nil, err
	}
	return append(b.Args(), args...), nil
}

// npm reports errors on stderr that are not failures.
func (t *NodePackageManager) LogStandardErrorAsError() bool { return false }

// LogEventsFromTextOutput turns npm ERR! and WARN lines into errors and
// warnings.
func (t *NodePackageManager) LogEventsFromTextOutput(h *task.Host, line string, importance task.Importance) {
	if m := npmErrorRegex.FindStringSubmatch(line); m != nil {
		if msg := m[npmErrorRegex.SubexpIndex("message")]; msg != "" {
			h.Log.ErrorCode(task.Event{Subcategory: "npm", Message: msg})
			return
		}
	}
	if m := npmWarningRegex.FindStringSubmatch(line); m != nil {
		if msg := m[npmWarningRegex.SubexpIndex("message")]; msg != "" {
			h.Log.WarningCode(task.Event{Subcategory: "npm", Message: msg})
			return
		}
	}
	t.NodeJs.LogEventsFromTextOutput(h, line, importance)
}

// EnvironmentOverride appends the bin directory of Git for Windows to PATH
// so that npm can fetch git dependencies.
func (t *NodePackageManager) EnvironmentOverride(h *task.Host, toolPath string) (map[string]string, error) {
	env, err := t.NodeJs.EnvironmentOverride(h, toolPath)
	if err != nil {
		return nil, err
	}

	reg := registryOr(t.Registry)
	keys := []string{gitInstallKey}
	if is64Bit {
		keys = append(keys, wow6432(gitInstallKey))
	}
	for _, key := range keys {
		loc, ok := reg.StringValue(LocalMachine, key, "InstallLocation")
		if !ok || loc == "" {
			continue
		}
		bin := filepath.Join(filepath.Clean(loc), "bin")
		env["PATH"] = strings.Join([]string{env["PATH"], bin}, string(os.PathListSeparator))
		break
	}
	return env, nil
}
