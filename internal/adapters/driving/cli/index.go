package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexRefresh bool

var indexCmd = &cobra.Command{
	Use:   "index [source]",
	Short: "Build the index for a documentation source",
	Long: `Loads the cached index for a catalog source, or crawls it when the
cache is missing or expired. Use --refresh to crawl regardless.

Run 'docsrag sources' for the list of source keys.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List known documentation sources",
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

func init() {
	indexCmd.Flags().BoolVar(&indexRefresh, "refresh", false, "ignore the cached index and crawl again")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if docsService == nil {
		return errNoDocsService
	}

	index, err := docsService.BuildIndex(cmd.Context(), args[0], indexRefresh, statusPrinter{w: cmd.ErrOrStderr()})
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	cmd.Printf("Indexed %s: %d chunks (built %s).\n",
		index.Label, len(index.Chunks), index.BuiltAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func runSources(cmd *cobra.Command, _ []string) error {
	if docsService == nil {
		return errNoDocsService
	}

	sources := docsService.Sources()
	if len(sources) == 0 {
		cmd.Println("No sources configured.")
		return nil
	}

	cmd.Println("Sources:")
	cmd.Println()
	for _, src := range sources {
		cmd.Printf("  %-12s %s\n", src.Key, src.Label)
		cmd.Printf("  %-12s %s (up to %d pages)\n", "", src.BaseURL, src.MaxPages)
	}
	return nil
}
