//go:build windows

package batchenv

import (
	"os/exec"
	"syscall"
)

// cmd parses its own command line, so it is handed over unescaped.
func setCommandLine(cmd *exec.Cmd, commandLine string) error {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CmdLine: syscall.EscapeArg(cmd.Path) + " " + commandLine,
	}
	return nil
}
