// Package config loads the global settings of the buildtasks binary from
// flags, BUILDTASKS_* environment variables, an optional YAML file and
// defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"buildtasks/internal/task"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read as settings.
const EnvPrefix = "BUILDTASKS"

// DefaultConfigFile is read from the working directory when present.
const DefaultConfigFile = "buildtasks.yml"

// Config holds the settings shared by every command.
type Config struct {
	LogLevel  string `mapstructure:"log-level" yaml:"log-level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log-format" yaml:"log-format" validate:"oneof=auto text json"`
	Output    string `mapstructure:"output" yaml:"output" validate:"oneof=text json yaml"`
	Shell     string `mapstructure:"shell" yaml:"shell" validate:"oneof=auto cmd sh"`
	// Encoding decodes child process output. Empty uses the OEM code page.
	Encoding string `mapstructure:"encoding" yaml:"encoding"`
	// Transcript is a file receiving every line written by child processes.
	Transcript string `mapstructure:"transcript" yaml:"transcript"`
}

// Options controls where Load looks for settings.
type Options struct {
	// ConfigFile must exist when set. Empty looks for DefaultConfigFile.
	ConfigFile string
	// EnvFile is loaded into the process environment before anything else.
	EnvFile string
	// Flags bound as the highest precedence source.
	Flags *pflag.FlagSet
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: task.LogFormatAuto,
		Output:    task.OutputText,
		Shell:     "auto",
	}
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		// Variables already set in the environment win over the file
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	d := Defaults()
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("output", d.Output)
	v.SetDefault("shell", d.Shell)
	v.SetDefault("encoding", d.Encoding)
	v.SetDefault("transcript", d.Transcript)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	switch {
	case opts.ConfigFile != "":
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	default:
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			v.SetConfigFile(DefaultConfigFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", DefaultConfigFile, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", DefaultConfigFile, err)
		}
	}

	if opts.Flags != nil {
		if err := v.BindPFlags(opts.Flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every enumerated setting has a known value.
func (c *Config) Validate() error {
	if err := task.Validate(c); err != nil {
		return &task.Error{Kind: task.KindConfig, Err: fmt.Errorf("invalid configuration: %w", err)}
	}
	return nil
}
