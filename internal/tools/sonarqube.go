package tools

import (
	"fmt"
	"regexp"
	"strings"

	"buildtasks/internal/cmdline"
	"buildtasks/internal/task"
	"buildtasks/internal/tooltask"
)

var sonarDefineRegex = regexp.MustCompile(`^-D`)

// SonarQubeRunner drives the begin and end steps of the SonarQube scanner
// for MSBuild.
type SonarQubeRunner struct {
	tooltask.Common `yaml:",inline"`

	// Action is begin or end.
	Action         string `yaml:"action" validate:"required"`
	ProjectKey     string `yaml:"project-key"`
	ProjectName    string `yaml:"project-name"`
	ProjectVersion string `yaml:"project-version"`
	Settings       string `yaml:"settings"`
}

func (t *SonarQubeRunner) Name() string     { return SonarQubeTaskName }
func (t *SonarQubeRunner) ToolName() string { return "MSBuild.SonarQube.Runner.exe" }

func (t *SonarQubeRunner) Execute(h *task.Host) (bool, error) {
	return tooltask.Execute(h, t, &t.Common)
}

func (t *SonarQubeRunner) CommandLineArgs(h *task.Host, toolPath string) ([]string, error) {
	action := strings.ToLower(strings.ReplaceAll(t.Action, "-", ""))
	if action != "begin" && action != "end" {
		return nil, fmt.Errorf("unknown SonarQube action %q, expected begin or end", t.Action)
	}

	var b cmdline.Builder
	b.AppendSwitch(action)
	b.AppendSwitchIfNotEmpty("/k:", t.ProjectKey)
	b.AppendSwitchIfNotEmpty("/n:", t.ProjectName)
	b.AppendSwitchIfNotEmpty("/v:", t.ProjectVersion)
	b.AppendSwitchIfNotEmpty("/s:", t.Settings)

	// Java system properties of the scanner become /d: analysis properties
	if opts, ok := h.Env.Lookup("SONAR_SCANNER_OPTS"); ok {
		for _, opt := range strings.Split(opts, " ") {
			if opt != "" {
				b.AppendSwitch(sonarDefineRegex.ReplaceAllString(opt, "/d:"))
			}
		}
	}
	return b.Args(), nil
}
