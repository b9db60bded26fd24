// Package cli implements the svnstamp command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/svnstamp/internal/log"
	"github.com/albertocavalcante/svnstamp/pkg/buildstamp"
	"github.com/albertocavalcante/svnstamp/pkg/config"
	"github.com/albertocavalcante/svnstamp/pkg/svn"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalFlags holds persistent flags that apply to all commands
var globalFlags struct {
	verbosity int
	logFormat string
}

// newProvider builds the metadata provider for a loaded config.
// Tests replace it with a fake.
var newProvider = func(cfg *config.Config) buildstamp.Provider {
	return svn.New(
		svn.WithBinary(cfg.Svn.Binary),
		svn.WithConfigDir(cfg.Svn.ConfigDir),
		svn.WithCredentials(cfg.Svn.Username, cfg.Svn.Password),
	)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "svnstamp",
	Short: "Deterministic build stamps from Subversion metadata",
	Long: `svnstamp derives build stamps from a Subversion working copy.

'svnstamp timestamp' prints the date of the most recent commit touching any
versioned entry under a directory, so rebuilding an unchanged tree yields the
same build qualifier. 'svnstamp revision' prints the last committed revision
of the directory itself.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "svnstamp %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().IntVarP(&globalFlags.verbosity, "verbosity", "v", log.VerbosityWarn,
		"Verbosity level (0=error, 1=warn, 2=info, 3=debug, 4=trace)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logFormat, "log-format", log.FormatText,
		"Log format (text, json)")

	cobra.OnInitialize(initLogging)
}

// initLogging applies CLI flags to the logger.
// This runs after flags are parsed but before command execution.
func initLogging() {
	log.Init(globalFlags.verbosity, globalFlags.logFormat)
}

// projectDir resolves the optional path argument, defaulting to the working directory.
func projectDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %q: %w", dir, err)
	}
	return abs, nil
}

// loadConfig loads the layered config for dir and logs where it came from.
func loadConfig(dir string) *config.Config {
	cfg := config.LoadFrom(dir)
	logger := log.With("dir", dir)
	for _, src := range cfg.Sources {
		logger.Info("loaded config", "path", src)
	}
	return cfg
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
