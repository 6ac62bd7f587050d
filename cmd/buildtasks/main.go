package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// globalFlags are bound to the configuration, see internal/config.
type globalFlags struct {
	configFile string
	envFile    string
}

func newRootCmd(a *app) *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "buildtasks",
		Short: "buildtasks - build pipeline tasks",
		Long: `buildtasks hosts the tasks of a build pipeline: capturing the environment
set up by a batch file, inspecting and copying files, and driving test,
coverage, Node.js and code analysis tools.

Each task prints its outputs on stdout as Name=Value lines (or JSON/YAML
with --output) and logs to stderr.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Root().PersistentFlags(), flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Configuration file (default: ./buildtasks.yml when present)")
	pf.StringVar(&flags.envFile, "env-file", "", "Load environment variables from a .env file first")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.String("log-format", "auto", "Log format: auto, text or json")
	pf.StringP("output", "o", "text", "Output format: text, json or yaml")
	pf.String("shell", "auto", "Interpreter for batch files: auto, cmd or sh")
	pf.String("encoding", "", "Encoding of child process output (default: OEM code page)")
	pf.String("transcript", "", "Record every line written by child processes to this file")

	rootCmd.AddCommand(
		newSetEnvFromBatchCmd(a),
		newSetEnvCmd(a),
		newFileInfoCmd(a),
		newRelativePathsCmd(a),
		newShortPathCmd(a),
		newVersionInfoCmd(a),
		newCopyCmd(a),
		newMSTestCmd(a),
		newPartCoverCmd(a),
		newNodeCmd(a),
		newNpmCmd(a),
		newSonarQubeCmd(a),
		newXMLSchemasValidateCmd(a),
		newRunCmd(a),
	)
	return rootCmd
}

func run(args []string, stdout, stderr io.Writer) (err error) {
	a := newApp(stdout, stderr)
	defer func() {
		if cerr := a.close(); err == nil {
			err = cerr
		}
	}()

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.Execute()
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
