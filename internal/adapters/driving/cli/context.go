package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsrag/internal/core/domain"
)

const snippetRunes = 240

var (
	contextJSON bool
	contextMax  int
)

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Show documentation excerpts for a query",
	Long: `Resolves the query to a documentation source or URL, loads or builds
its index and prints the highest-ranked excerpts.

Queries that name no known source and contain no URL have no context.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output the result as JSON")
	contextCmd.Flags().IntVarP(&contextMax, "max", "n", 0, "maximum number of excerpts to print (0 = all ranked)")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if docsService == nil {
		return errNoDocsService
	}
	query := strings.Join(args, " ")

	result, err := docsService.GetContext(cmd.Context(), query, statusPrinter{w: cmd.ErrOrStderr()})
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	result = result.Top(contextMax)

	if contextJSON {
		return outputContextJSON(cmd, result)
	}
	outputContextText(cmd, result)
	return nil
}

func outputContextJSON(cmd *cobra.Command, result *domain.ContextResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputContextText(cmd *cobra.Command, result *domain.ContextResult) {
	if result == nil {
		cmd.Println("No documentation context for this query.")
		return
	}

	origin := "fresh index"
	if result.UsedCache {
		origin = "cached index"
	}
	cmd.Printf("%s (%s)\n\n", result.SourceLabel, origin)

	for i := range result.Chunks {
		ranked := result.Chunks[i]
		cmd.Printf("  [%d] %s (%.4f)\n", i+1, ranked.Chunk.URL, ranked.Score)
		cmd.Printf("      %s\n\n", snippet(ranked.Chunk.Text, snippetRunes))
	}
}

func snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}
