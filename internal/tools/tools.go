// Package tools wraps the command line tools driven by the build: the MSTest
// test runner, the PartCover coverage profiler, Node.js, npm and the
// SonarQube scanner for MSBuild.
package tools

import (
	"runtime"
)

// Task names as used on the command line and in task files.
const (
	MSTestTaskName    = "mstest"
	PartCoverTaskName = "partcover"
	NodeJsTaskName    = "node"
	NpmTaskName       = "npm"
	SonarQubeTaskName = "sonarqube"
)

// exeName appends the executable suffix of the running platform.
func exeName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func registryOr(r Registry) Registry {
	if r == nil {
		return SystemRegistry()
	}
	return r
}
