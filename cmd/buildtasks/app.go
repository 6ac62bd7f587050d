package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"buildtasks/internal/batchenv"
	"buildtasks/internal/config"
	"buildtasks/internal/task"
	"buildtasks/internal/tooltask"
	"buildtasks/pkg/outputlog"

	"github.com/spf13/pflag"
)

// errTaskFailed is returned when a task ran but reported failure. The
// reason is in the log.
var errTaskFailed = errors.New("task failed")

// app holds what the commands share once the configuration is loaded.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *slog.Logger
	shell  batchenv.Shell

	transcriptFile *os.File
	transcript     *outputlog.Writer
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) setup(flags *pflag.FlagSet, g globalFlags) error {
	cfg, err := config.Load(config.Options{
		ConfigFile: g.configFile,
		EnvFile:    g.envFile,
		Flags:      flags,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = task.NewLogger(a.stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(a.logger)

	a.shell, err = batchenv.ShellByName(cfg.Shell)
	if err != nil {
		return &task.Error{Kind: task.KindConfig, Err: err}
	}

	if cfg.Transcript != "" {
		f, err := os.OpenFile(cfg.Transcript, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open transcript %s: %w", cfg.Transcript, err)
		}
		a.transcriptFile = f
		a.transcript = outputlog.NewWriter(f)
	}
	return nil
}

func (a *app) close() error {
	if a.transcript == nil {
		return nil
	}
	err := a.transcript.Close()
	if cerr := a.transcriptFile.Close(); err == nil {
		err = cerr
	}
	a.transcript = nil
	return err
}

// configure applies the global settings to task parameters left unset.
func (a *app) configure(t task.Task) {
	switch t := t.(type) {
	case *batchenv.Task:
		if t.Shell == nil {
			t.Shell = a.shell
		}
		if t.Encoding == "" {
			t.Encoding = a.cfg.Encoding
		}
		if a.transcript != nil {
			t.Recorder = a.transcript
		}
	case interface{ ToolCommon() *tooltask.Common }:
		c := t.ToolCommon()
		if c.Encoding == "" {
			c.Encoding = a.cfg.Encoding
		}
		if a.transcript != nil {
			c.Recorder = a.transcript
		}
	}
}

// execute runs one task and returns its outputs.
func (a *app) execute(t task.Task) (*task.Outputs, error) {
	a.configure(t)

	h := task.NewHost(task.NewLog(a.logger).WithTask(t.Name()))
	ok, err := t.Execute(h)
	if err != nil {
		return h.Outputs, err
	}
	if !ok {
		return h.Outputs, fmt.Errorf("%s: %w", t.Name(), errTaskFailed)
	}
	return h.Outputs, nil
}

// runTask runs a single task and prints its outputs, also when it failed.
func (a *app) runTask(t task.Task) error {
	outputs, err := a.execute(t)
	if werr := outputs.Write(a.stdout, a.cfg.Output); werr != nil && err == nil {
		err = fmt.Errorf("failed to write outputs: %w", werr)
	}
	return err
}
