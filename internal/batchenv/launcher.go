// Package batchenv runs a shell script, captures the environment it leaves
// behind and merges the variables that changed into the caller's
// environment.
package batchenv

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Shell names accepted by ShellByName.
const (
	ShellAuto  = "auto"
	ShellCmd   = "cmd"
	ShellPosix = "sh"
)

// Request describes the script to run.
type Request struct {
	Script    string
	Arguments string
	Dir       string
	// Nil leaves the interpreter default in place.
	EnableExtensions       *bool
	EnableDelayedExpansion *bool
}

// Invocation is a fully built child command line.
type Invocation struct {
	Path string
	// Args follow Path when CommandLine is empty.
	Args []string
	// CommandLine is passed verbatim to the interpreter, without Path.
	CommandLine string
	Dir         string
}

// String returns the command line as it is logged.
func (inv Invocation) String() string {
	if inv.CommandLine != "" {
		return inv.Path + " " + inv.CommandLine
	}
	return shellquote.Join(append([]string{inv.Path}, inv.Args...)...)
}

// Command returns an unstarted command for the invocation.
func (inv Invocation) Command() (*exec.Cmd, error) {
	cmd := exec.Command(inv.Path, inv.Args...)
	cmd.Dir = inv.Dir
	if inv.CommandLine != "" {
		if err := setCommandLine(cmd, inv.CommandLine); err != nil {
			return nil, err
		}
	}
	return cmd, nil
}

// Shell builds the invocation that sources a script and dumps the resulting
// environment to stdout.
type Shell interface {
	Name() string
	Build(req Request) (Invocation, error)
}

// DefaultShell returns the interpreter native to the running platform.
func DefaultShell() Shell {
	if runtime.GOOS == "windows" {
		return NewCmdShell()
	}
	return PosixShell{Path: "/bin/sh"}
}

// ShellByName resolves a configured shell name.
func ShellByName(name string) (Shell, error) {
	switch strings.ToLower(name) {
	case "", ShellAuto:
		return DefaultShell(), nil
	case ShellCmd:
		return NewCmdShell(), nil
	case ShellPosix:
		return PosixShell{Path: "/bin/sh"}, nil
	default:
		return nil, fmt.Errorf("unknown shell %q", name)
	}
}

// CmdShell is the Windows command interpreter.
type CmdShell struct {
	Path string
}

// NewCmdShell locates the interpreter through COMSPEC.
func NewCmdShell() CmdShell {
	path := os.Getenv("COMSPEC")
	if path == "" {
		path = "cmd.exe"
	}
	return CmdShell{Path: path}
}

func (CmdShell) Name() string { return ShellCmd }

// Build produces
//
//	[/E:ON|/E:OFF] [/V:ON|/V:OFF] /C ""script" args > nul && SET"
//
// The script's own output is discarded and only the SET dump reaches stdout.
func (s CmdShell) Build(req Request) (Invocation, error) {
	var batch strings.Builder
	batch.WriteString(quoteCmdArg(req.Script))
	if req.Arguments != "" {
		batch.WriteString(" ")
		batch.WriteString(req.Arguments)
	}
	batch.WriteString(" > nul && SET")

	var parts []string
	if req.EnableExtensions != nil {
		parts = append(parts, "/E:"+onOff(*req.EnableExtensions))
	}
	if req.EnableDelayedExpansion != nil {
		parts = append(parts, "/V:"+onOff(*req.EnableDelayedExpansion))
	}
	// Outer quotes keep cmd from stripping the quotes around the script path
	parts = append(parts, "/C", `"`+batch.String()+`"`)

	return Invocation{
		Path:        s.Path,
		CommandLine: strings.Join(parts, " "),
		Dir:         req.Dir,
	}, nil
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// quoteCmdArg quotes a path for cmd when it contains separators.
func quoteCmdArg(s string) string {
	if s == "" || strings.ContainsAny(s, " \t&()[]{}^=;!'+,`~") {
		return `"` + s + `"`
	}
	return s
}

// PosixShell sources the script in a POSIX shell and runs env.
type PosixShell struct {
	Path string
}

func (PosixShell) Name() string { return ShellPosix }

// Build produces
//
//	sh -c 'set -- args; . "$0" >/dev/null && env' script
//
// Arguments are shell text, expanded by the shell like they are by cmd.
func (s PosixShell) Build(req Request) (Invocation, error) {
	if req.EnableExtensions != nil || req.EnableDelayedExpansion != nil {
		return Invocation{}, fmt.Errorf("shell %s does not support command extension or delayed expansion switches", s.Name())
	}

	script := req.Script
	if !filepath.IsAbs(script) {
		// A bare name given to "." would be searched in PATH
		script = "./" + script
	}

	return Invocation{
		Path: s.Path,
		Args: []string{"-c", "set -- " + req.Arguments + `; . "$0" >/dev/null && env`, script},
		Dir:  req.Dir,
	}, nil
}
