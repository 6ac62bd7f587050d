//go:build !windows

package batchenv

import (
	"fmt"
	"os/exec"

	"github.com/kballard/go-shellquote"
)

func setCommandLine(cmd *exec.Cmd, commandLine string) error {
	args, err := shellquote.Split(commandLine)
	if err != nil {
		return fmt.Errorf("failed to split command line: %w", err)
	}
	cmd.Args = append(cmd.Args[:1], args...)
	return nil
}
