// Package commands implements the CLI commands for makit.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/makit/internal/app"
	"go.trai.ch/makit/internal/build"
	"go.trai.ch/makit/internal/core/domain"
	"go.trai.ch/makit/internal/core/ports"
)

// CLI represents the command line interface for makit.
type CLI struct {
	app      Application
	settings ports.LogSettings
	rootCmd  *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Make(ctx context.Context, targets []string, opts app.Options) error
	Graph(ctx context.Context, targets []string, opts app.Options) error
	Watch(ctx context.Context, target string, opts app.Options) error
	Clean(ctx context.Context, opts app.CleanOptions) error
}

// New creates a new CLI instance with the given app. settings may be nil,
// in which case the log level flags have no effect.
func New(a Application, settings ports.LogSettings) *CLI {
	c := &CLI{
		app:      a,
		settings: settings,
	}

	rootCmd := &cobra.Command{
		Use:               "makit [targets...]",
		Short:             "An incremental make for file targets declared in makefile.yaml",
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           build.Version,
		PersistentPreRunE: c.configureLogger,
		RunE:              c.runMake,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("makefile", "m", "", "Path to makefile.yaml, or a directory to search upwards from")
	flags.StringP("database", "d", "", "Path to the timestamp database (default: <root>/"+domain.DatabaseName+")")
	flags.StringP("loglevel", "l", "info", "Log level: debug, verbose, info, warn or error")
	flags.BoolP("verbose", "v", false, "Shorthand for --loglevel verbose")
	flags.Bool("debug", false, "Shorthand for --loglevel debug")
	flags.Bool("json", false, "Write logs as JSON")
	flags.StringP("reporter", "r", "auto", "Progress reporter: auto, verbose or dot")
	flags.BoolP("graph", "g", false, "Print the dependency tree after making")
	flags.Bool("no-check-circular", false, "Disable circular dependency detection")

	c.rootCmd = rootCmd

	rootCmd.AddCommand(c.newMakeCmd())
	rootCmd.AddCommand(c.newGraphCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) configureLogger(cmd *cobra.Command, _ []string) error {
	if c.settings == nil {
		return nil
	}

	level, _ := cmd.Flags().GetString("loglevel")
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")
	jsonLogs, _ := cmd.Flags().GetBool("json")

	switch {
	case debug:
		c.settings.SetLevel(domain.LogLevelDebug)
	case verbose:
		c.settings.SetLevel(domain.LogLevelVerbose)
	default:
		c.settings.SetLevel(domain.ParseLogLevel(level))
	}
	c.settings.SetJSON(jsonLogs)
	return nil
}

// options reads the persistent flags shared by every command.
func options(cmd *cobra.Command) app.Options {
	makefile, _ := cmd.Flags().GetString("makefile")
	database, _ := cmd.Flags().GetString("database")
	reporter, _ := cmd.Flags().GetString("reporter")
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")
	graph, _ := cmd.Flags().GetBool("graph")
	noCheckCircular, _ := cmd.Flags().GetBool("no-check-circular")

	return app.Options{
		Makefile:        makefile,
		Database:        database,
		Reporter:        reporter,
		Verbose:         verbose || debug,
		Graph:           graph,
		NoCheckCircular: noCheckCircular,
	}
}
