package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsrag/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docsrag/internal/config"
	"github.com/custodia-labs/docsrag/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can pull
ranked documentation excerpts from the local index.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Tools:
  docs_context      ranked excerpts for a question
  docs_sources      the documentation catalog
  docs_build_index  crawl and cache one source

Crawl progress is sent to clients as log notifications once they set
a log level.

Saving config.toml while the server runs drops cached prompt templates
and re-reads the web search setting.

Examples:
  # Stdio mode (default)
  docsrag mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  docsrag mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{Docs: docsService, Status: statusSource})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if configWatcher != nil {
		go func() {
			err := configWatcher.Watch(ctx, func() {
				if promptStore != nil {
					promptStore.Reload()
				}
				if chatService != nil && configStore != nil {
					chatService.SetWebSearch(configStore.GetBool(config.KeyChatWebSearch))
				}
				logger.Info("config: reloaded")
			})
			if err != nil {
				logger.Warn("config: watch stopped: %v", err)
			}
		}()
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
