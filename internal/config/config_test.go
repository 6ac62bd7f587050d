package config

import (
	"os"
	"path/filepath"
	"testing"

	"buildtasks/internal/task"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-level", "info", "")
	fs.String("output", "text", "")
	fs.String("shell", "auto", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(Options{})
	require.NoError(t, err)
	require.Equal(t, Defaults(), *cfg)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(DefaultConfigFile, []byte("output: yaml\nshell: sh\nlog-level: warn\nencoding: cp850\n"), 0644))
	t.Setenv("BUILDTASKS_SHELL", "cmd")
	t.Setenv("BUILDTASKS_LOG_LEVEL", "error")

	cfg, err := Load(Options{Flags: flags(t, "--log-level", "DEBUG")})
	require.NoError(t, err)
	require.Equal(t, "yaml", cfg.Output)
	require.Equal(t, "cmd", cfg.Shell)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "cp850", cfg.Encoding)
	require.Equal(t, "auto", cfg.LogFormat)
}

func TestLoadUnchangedFlagDoesNotOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BUILDTASKS_OUTPUT", "json")

	cfg, err := Load(Options{Flags: flags(t)})
	require.NoError(t, err)
	require.Equal(t, "json", cfg.Output)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transcript: out.log\n"), 0644))

	cfg, err := Load(Options{ConfigFile: path})
	require.NoError(t, err)
	require.Equal(t, "out.log", cfg.Transcript)

	_, err = Load(Options{ConfigFile: filepath.Join(t.TempDir(), "missing.yml")})
	require.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BUILDTASKS_LOG_FORMAT=json\nBUILDTASKS_TEST_DOTENV=loaded\n"), 0644))
	t.Setenv("BUILDTASKS_LOG_FORMAT", "")
	require.NoError(t, os.Unsetenv("BUILDTASKS_LOG_FORMAT"))
	t.Setenv("BUILDTASKS_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("BUILDTASKS_TEST_DOTENV"))

	cfg, err := Load(Options{EnvFile: path})
	require.NoError(t, err)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "loaded", os.Getenv("BUILDTASKS_TEST_DOTENV"))

	_, err = Load(Options{EnvFile: filepath.Join(t.TempDir(), "none.env")})
	require.Error(t, err)
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BUILDTASKS_OUTPUT", "xml")

	_, err := Load(Options{})
	require.Error(t, err)
	require.True(t, task.IsKind(err, task.KindConfig))
	require.Contains(t, err.Error(), "output must be one of [text json yaml]")
}
