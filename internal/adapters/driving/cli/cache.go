package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached indexes",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [source]",
	Short: "Drop cached indexes",
	Long:  `Drops the cached index for one source, or for every source when none is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	if docsService == nil {
		return errNoDocsService
	}

	key := ""
	if len(args) == 1 {
		key = args[0]
	}
	if err := docsService.ClearCache(cmd.Context(), key); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	if key == "" {
		cmd.Println("Cleared all cached indexes.")
	} else {
		cmd.Printf("Cleared cached index: %s\n", key)
	}
	return nil
}
