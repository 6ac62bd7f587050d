package main

import (
	"buildtasks/internal/batchenv"
	"buildtasks/internal/filetasks"
	"buildtasks/internal/tools"
	"buildtasks/internal/tooltask"
	"buildtasks/internal/versioninfo"
	"buildtasks/internal/xmltasks"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// optionalBool sets *dst only when the flag was given, leaving nil for
// "use the default".
func optionalBool(flags *pflag.FlagSet, name string, value bool, dst **bool) {
	if flags.Changed(name) {
		v := value
		*dst = &v
	}
}

// joinArgs quotes the arguments after "--" back into a single command line
// string, which the tool splits again.
func joinArgs(args []string) string {
	return shellquote.Join(args...)
}

func addToolFlags(fs *pflag.FlagSet, c *tooltask.Common) {
	fs.StringVar(&c.ToolPath, "tool-path", "", "Directory holding the tool executable")
	fs.StringVar(&c.ToolExe, "tool-exe", "", "File name of the tool executable")
	fs.StringArrayVar(&c.EnvironmentVariables, "env", nil, "NAME=VALUE set in the tool environment (repeatable)")
	fs.StringVar(&c.StandardOutputImportance, "stdout-importance", "", "Importance of stdout lines: low, normal or high")
	fs.StringVar(&c.StandardErrorImportance, "stderr-importance", "", "Importance of stderr lines: low, normal or high")
}

func newSetEnvFromBatchCmd(a *app) *cobra.Command {
	t := &batchenv.Task{}
	var extensions, delayedExpansion bool

	cmd := &cobra.Command{
		Use:   batchenv.TaskName,
		Short: "Run a batch file and import the environment variables it sets",
		Long: `Run a batch file and import the environment variables it sets.

The batch file runs in a child interpreter which dumps its environment once
the script succeeded. Every variable whose value differs from the current
environment is set in this process and listed in the Changes output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			optionalBool(cmd.Flags(), "enable-extensions", extensions, &t.EnableExtensions)
			optionalBool(cmd.Flags(), "enable-delayed-expansion", delayedExpansion, &t.EnableDelayedExpansion)
			return a.runTask(t)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&t.BatchFile, "batch-file", "f", "", "Batch file to run")
	fs.StringVar(&t.BatchArguments, "batch-arguments", "", "Arguments passed to the batch file")
	fs.BoolVar(&extensions, "enable-extensions", false, "Enable (or with =false disable) command extensions")
	fs.BoolVar(&delayedExpansion, "enable-delayed-expansion", false, "Enable (or with =false disable) delayed variable expansion")
	fs.StringVar(&t.WorkingDirectory, "working-directory", "", "Directory the batch file runs in")
	return cmd
}

func newSetEnvCmd(a *app) *cobra.Command {
	t := &batchenv.SetVariableTask{}
	cmd := &cobra.Command{
		Use:   batchenv.SetVariableTaskName,
		Short: "Set an environment variable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTask(t)
		},
	}
	cmd.Flags().StringVar(&t.Variable, "variable", "", "Variable name")
	cmd.Flags().StringVar(&t.Value, "value", "", "Variable value")
	return cmd
}

func newFileInfoCmd(a *app) *cobra.Command {
	t := &filetasks.FileInfo{}
	cmd := &cobra.Command{
		Use:   filetasks.FileInfoTaskName + " PATH",
		Short: "Print the attributes of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Path = args[0]
			return a.runTask(t)
		},
	}
	return cmd
}

func newRelativePathsCmd(a *app) *cobra.Command {
	t := &filetasks.RelativePaths{}
	cmd := &cobra.Command{
		Use:   filetasks.RelativePathsTaskName + " PATH...",
		Short: "Print paths relative to a base directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Inputs = args
			return a.runTask(t)
		},
	}
	cmd.Flags().StringVar(&t.BaseDirectory, "base-directory", "", "Base directory (default: current directory)")
	return cmd
}

func newShortPathCmd(a *app) *cobra.Command {
	t := &filetasks.ShortPath{}
	return &cobra.Command{
		Use:   filetasks.ShortPathTaskName + " PATH",
		Short: "Print the short (8.3) form of a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Input = args[0]
			return a.runTask(t)
		},
	}
}

func newVersionInfoCmd(a *app) *cobra.Command {
	t := &versioninfo.Task{}
	return &cobra.Command{
		Use:   versioninfo.TaskName + " VERSION",
		Short: "Split a major.minor[.build[.revision]] version into its components",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Version = args[0]
			return a.runTask(t)
		},
	}
}

func newCopyCmd(a *app) *cobra.Command {
	t := &filetasks.Copy{}
	cmd := &cobra.Command{
		Use:   filetasks.CopyTaskName + " SOURCE...",
		Short: "Copy files, creating missing directories and supporting long paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t.SourceFiles = args
			return a.runTask(t)
		},
	}
	cmd.Flags().StringVarP(&t.DestinationFolder, "destination-folder", "d", "", "Folder receiving the files")
	cmd.Flags().StringArrayVar(&t.DestinationFiles, "destination-file", nil, "Destination of each source file, in order (repeatable)")
	return cmd
}

func newMSTestCmd(a *app) *cobra.Command {
	t := &tools.MSTest{}
	cmd := &cobra.Command{
		Use:   tools.MSTestTaskName + " CONTAINER...",
		Short: "Run unit tests with MSTest",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Containers = args
			return a.runTask(t)
		},
	}
	fs := cmd.Flags()
	addToolFlags(fs, &t.Common)
	fs.StringVar(&t.Category, "category", "", "Test category filter")
	fs.StringVar(&t.Settings, "settings", "", "Test settings file")
	fs.StringVar(&t.SearchPathRoot, "search-path-root", "", "Root of the assembly search path")
	fs.StringVar(&t.ResultsFileRoot, "results-file-root", "", "Directory of the results file")
	fs.BoolVar(&t.NoResults, "no-results", false, "Do not write a results file")
	fs.StringVar(&t.TeamCollectionUri, "team-collection-uri", "", "Team collection to publish results to")
	fs.StringVar(&t.TeamBuildUri, "team-build-uri", "", "Build to publish results for")
	fs.StringVar(&t.TeamProject, "team-project", "", "Team project of the build")
	fs.StringVar(&t.Platform, "platform", "", "Platform of the build")
	fs.StringVar(&t.Flavor, "flavor", "", "Flavor of the build")
	fs.StringVar(&t.ToolsVersion, "tools-version", "", "Visual Studio version (default: 10.0)")
	return cmd
}

func newPartCoverCmd(a *app) *cobra.Command {
	t := &tools.PartCover{}
	cmd := &cobra.Command{
		Use:   tools.PartCoverTaskName,
		Short: "Run a program under the PartCover coverage profiler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTask(t)
		},
	}
	fs := cmd.Flags()
	addToolFlags(fs, &t.Common)
	fs.StringVar(&t.Target, "target", "", "Program to profile")
	fs.StringVar(&t.TargetWorkingDir, "target-work-dir", "", "Working directory of the program")
	fs.StringVar(&t.TargetArgs, "target-args", "", "Arguments of the program")
	fs.StringVar(&t.Output, "coverage-output", "", "Coverage report file")
	fs.StringArrayVar(&t.Include, "include", nil, "Coverage include rule (repeatable)")
	fs.StringArrayVar(&t.Exclude, "exclude", nil, "Coverage exclude rule (repeatable)")
	fs.StringVar(&t.ToolsVersion, "tools-version", "", "Framework version of the installation (default: 4.0)")
	return cmd
}

func addNodeFlags(fs *pflag.FlagSet, t *tools.NodeJs) {
	addToolFlags(fs, &t.Common)
	fs.StringVar(&t.WorkingDir, "working-directory", "", "Directory the tool runs in")
	fs.StringArrayVar(&t.PathAdditions, "path", nil, "Directory prepended to PATH (repeatable)")
}

func newNodeCmd(a *app) *cobra.Command {
	t := &tools.NodeJs{}
	var failOnError bool
	cmd := &cobra.Command{
		Use:   tools.NodeJsTaskName + " [-- ARGS...]",
		Short: "Run Node.js",
		RunE: func(cmd *cobra.Command, args []string) error {
			optionalBool(cmd.Flags(), "fail-on-error", failOnError, &t.FailOnError)
			t.Arguments = joinArgs(args)
			return a.runTask(t)
		},
	}
	addNodeFlags(cmd.Flags(), t)
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", true, "Fail when node exits with a non-zero code")
	return cmd
}

func newNpmCmd(a *app) *cobra.Command {
	t := &tools.NodePackageManager{}
	var failOnError bool
	cmd := &cobra.Command{
		Use:   tools.NpmTaskName + " [ACTION] [-- ARGS...]",
		Short: "Run npm install, dedupe, run-script or update",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			optionalBool(cmd.Flags(), "fail-on-error", failOnError, &t.FailOnError)
			dash := cmd.ArgsLenAtDash()
			if dash < 0 {
				dash = len(args)
			}
			if dash > 1 {
				return cobra.ExactArgs(1)(cmd, args[:dash])
			}
			if dash == 1 {
				t.Action = args[0]
			}
			t.Arguments = joinArgs(args[dash:])
			return a.runTask(t)
		},
	}
	addNodeFlags(cmd.Flags(), &t.NodeJs)
	cmd.Flags().BoolVar(&failOnError, "fail-on-error", true, "Fail when npm exits with a non-zero code")
	cmd.Flags().StringVar(&t.Only, "only", "", "Install only development or production dependencies")
	cmd.Flags().StringVar(&t.RegistryURL, "registry", "", "Package registry URL")
	cmd.Flags().StringVar(&t.Cache, "cache", "", "Cache directory")
	return cmd
}

func newSonarQubeCmd(a *app) *cobra.Command {
	t := &tools.SonarQubeRunner{}
	cmd := &cobra.Command{
		Use:       tools.SonarQubeTaskName + " begin|end",
		Short:     "Run the begin or end step of the SonarQube scanner for MSBuild",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"begin", "end"},
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Action = args[0]
			return a.runTask(t)
		},
	}
	fs := cmd.Flags()
	addToolFlags(fs, &t.Common)
	fs.StringVar(&t.ProjectKey, "project-key", "", "Project key")
	fs.StringVar(&t.ProjectName, "project-name", "", "Project name")
	fs.StringVar(&t.ProjectVersion, "project-version", "", "Project version")
	fs.StringVar(&t.Settings, "settings", "", "Analysis settings file")
	return cmd
}

func newXMLSchemasValidateCmd(a *app) *cobra.Command {
	t := &xmltasks.SchemasValidate{}
	return &cobra.Command{
		Use:   xmltasks.SchemasValidateTaskName + " SCHEMA...",
		Short: "Check that XML schema files parse and compile",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Schemas = args
			return a.runTask(t)
		},
	}
}
