package tools

import (
	"fmt"
	"path/filepath"
	"regexp"

	"buildtasks/internal/cmdline"
	"buildtasks/internal/task"
	"buildtasks/internal/tooltask"
)

const (
	defaultVisualStudioVersion = "10.0"
	visualStudioKey            = `SOFTWARE\Microsoft\VisualStudio\%s`
)

var mstestResultRegex = regexp.MustCompile(`^(?P<result>Error|Failed|Inconclusive|Passed)\s+(?P<name>.*)$`)

// MSTest runs unit tests with MSTest.exe and optionally publishes the
// results to a team collection.
type MSTest struct {
	tooltask.Common `yaml:",inline"`

	Category          string   `yaml:"category"`
	Containers        []string `yaml:"containers"`
	Flavor            string   `yaml:"flavor"`
	NoResults         bool     `yaml:"no-results"`
	Platform          string   `yaml:"platform"`
	Settings          string   `yaml:"settings"`
	ResultsFileRoot   string   `yaml:"results-file-root"`
	SearchPathRoot    string   `yaml:"search-path-root"`
	TeamCollectionUri string   `yaml:"team-collection-uri"`
	TeamBuildUri      string   `yaml:"team-build-uri"`
	TeamProject       string   `yaml:"team-project"`
	// ToolsVersion is the Visual Studio version, 10.0 when empty.
	ToolsVersion string `yaml:"tools-version"`

	Registry Registry `yaml:"-"`
}

func (t *MSTest) Name() string     { return MSTestTaskName }
func (t *MSTest) ToolName() string { return "MSTest.exe" }

func (t *MSTest) Execute(h *task.Host) (bool, error) {
	return tooltask.Execute(h, t, &t.Common)
}

func (t *MSTest) CommandLineArgs(h *task.Host, toolPath string) ([]string, error) {
	var b cmdline.Builder
	b.AppendSwitch("/nologo")
	b.AppendSwitch("/usestderr")

	b.AppendSwitchIfNotEmpty("/category:", t.Category)
	b.AppendSwitchIfNotEmpty("/testsettings:", t.Settings)
	b.AppendSwitchIfNotEmpty("/searchpathroot:", t.SearchPathRoot)
	b.AppendSwitchIfNotEmpty("/resultsfileroot:", t.ResultsFileRoot)
	if t.NoResults {
		b.AppendSwitch("/noresults")
	}

	b.AppendSwitchesIfNotEmpty("/testcontainer:", t.Containers)

	b.AppendSwitchIfNotEmpty("/publish:", t.TeamCollectionUri)
	b.AppendSwitchIfNotEmpty("/publishbuild:", t.TeamBuildUri)
	b.AppendSwitchIfNotEmpty("/teamproject:", t.TeamProject)
	b.AppendSwitchIfNotEmpty("/platform:", t.Platform)
	b.AppendSwitchIfNotEmpty("/flavor:", t.Flavor)
	return b.Args(), nil
}

// ValidateParameters requires a team collection for every publishing option.
func (t *MSTest) ValidateParameters(h *task.Host) bool {
	if t.Flavor == "" && t.Platform == "" && t.TeamBuildUri == "" && t.TeamProject == "" {
		return true
	}
	if t.TeamCollectionUri == "" {
		h.Log.Error("A team collection must be specified (team-collection-uri) to publish test results.")
		return false
	}
	return true
}

// FullPathToTool reads the Visual Studio installation directory.
func (t *MSTest) FullPathToTool(h *task.Host, exe string) string {
	version := t.ToolsVersion
	if version == "" {
		version = defaultVisualStudioVersion
	}
	key := fmt.Sprintf(visualStudioKey, version)
	if is64Bit {
		key = wow6432(key)
	}

	dir, ok := registryOr(t.Registry).StringValue(LocalMachine, key, "InstallDir")
	if !ok {
		return ""
	}
	return filepath.Join(dir, exe)
}

// LogEventsFromTextOutput turns failed test results into errors.
func (t *MSTest) LogEventsFromTextOutput(h *task.Host, line string, importance task.Importance) {
	m := mstestResultRegex.FindStringSubmatch(line)
	if m == nil {
		tooltask.LogMessageFromText(h.Log, line, importance)
		return
	}

	result := m[mstestResultRegex.SubexpIndex("result")]
	switch result {
	case "Error", "Failed", "Inconclusive":
		h.Log.Error("%s test: %s", result, m[mstestResultRegex.SubexpIndex("name")])
	default:
		h.Log.Message(task.ImportanceLow, "%s", line)
	}
}
