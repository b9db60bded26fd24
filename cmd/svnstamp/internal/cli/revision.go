package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/svnstamp/pkg/buildstamp"
)

var revisionFlags struct {
	json bool
}

var revisionCmd = &cobra.Command{
	Use:     "revision [path]",
	Aliases: []string{"resolve-revision"},
	Short:   "Print the last committed revision of a directory",
	Long: `Prints the last committed revision of path itself (default: current
directory). Only the directory's own metadata is read; the ignore list does
not apply.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRevision,
}

func init() {
	revisionCmd.Flags().BoolVar(&revisionFlags.json, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(revisionCmd)
}

// RevisionOutput is the JSON output format for svnstamp revision.
type RevisionOutput struct {
	Path     string `json:"path"`
	Revision string `json:"revision"`
}

func runRevision(cmd *cobra.Command, args []string) error {
	dir, err := projectDir(args)
	if err != nil {
		return err
	}

	cfg := loadConfig(dir)
	resolver := buildstamp.NewResolver(newProvider(cfg))
	rev, err := resolver.Revision(cmd.Context(), dir, cfg.IgnoreList())
	if err != nil {
		return fmt.Errorf("failed to resolve revision: %w", err)
	}

	if revisionFlags.json {
		return outputJSON(cmd.OutOrStdout(), RevisionOutput{Path: dir, Revision: rev})
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rev)
	return err
}
