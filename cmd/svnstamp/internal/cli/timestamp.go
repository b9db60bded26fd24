package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/svnstamp/internal/log"
	"github.com/albertocavalcante/svnstamp/pkg/buildstamp"
	"github.com/albertocavalcante/svnstamp/pkg/config"
)

var timestampFlags struct {
	ignore []string
	format string
	json   bool
}

var timestampCmd = &cobra.Command{
	Use:     "timestamp [path]",
	Aliases: []string{"resolve-timestamp"},
	Short:   "Print the latest commit date under a directory",
	Long: `Prints the date of the most recent commit touching any versioned entry
at or below path (default: current directory), in UTC.

Entries whose bare file name is ignored do not count, at any depth. Names
come from [timestamp] ignore in svnstamp.toml, SVNSTAMP_IGNORE, and --ignore,
which accepts commas, newlines, or repeated flags.

If no entry qualifies, nothing is printed and the command succeeds.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTimestamp,
}

func init() {
	timestampCmd.Flags().StringArrayVar(&timestampFlags.ignore, "ignore", nil,
		"File names to ignore (comma or newline separated, repeatable)")
	timestampCmd.Flags().StringVar(&timestampFlags.format, "format", "",
		"Output format: rfc3339, qualifier, or a Go time layout (default from config)")
	timestampCmd.Flags().BoolVar(&timestampFlags.json, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(timestampCmd)
}

// TimestampOutput is the JSON output format for svnstamp timestamp.
type TimestampOutput struct {
	Path      string   `json:"path"`
	Timestamp *string  `json:"timestamp"`
	Unix      *int64   `json:"unix,omitempty"`
	Ignored   []string `json:"ignored"`
}

func runTimestamp(cmd *cobra.Command, args []string) error {
	dir, err := projectDir(args)
	if err != nil {
		return err
	}

	cfg := loadConfig(dir)
	cfg.AddIgnore(config.SplitList(strings.Join(timestampFlags.ignore, "\n"))...)
	if timestampFlags.format != "" {
		cfg.Timestamp.Format = timestampFlags.format
	}

	resolver := buildstamp.NewResolver(newProvider(cfg))
	ts, ok, err := resolver.LatestCommitTimestamp(cmd.Context(), dir, cfg.IgnoreList())
	if err != nil {
		return fmt.Errorf("failed to resolve timestamp: %w", err)
	}

	out := cmd.OutOrStdout()
	if timestampFlags.json {
		output := TimestampOutput{
			Path:    dir,
			Ignored: buildstamp.ParseIgnoreList(cfg.IgnoreList()).Names(),
		}
		if ok {
			formatted := formatTimestamp(ts, cfg.TimeLayout())
			unix := ts.Unix()
			output.Timestamp = &formatted
			output.Unix = &unix
		}
		return outputJSON(out, output)
	}

	if !ok {
		log.Warn("no versioned entry contributed a commit date", "path", dir)
		return nil
	}
	_, err = fmt.Fprintln(out, formatTimestamp(ts, cfg.TimeLayout()))
	return err
}

// formatTimestamp renders ts in UTC so the stamp does not depend on the build host.
func formatTimestamp(ts time.Time, layout string) string {
	return ts.UTC().Format(layout)
}
