package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promethean-light/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search and
add notes.

By default, the server communicates over stdio using JSON-RPC. Use --port
to serve over HTTP instead, for the MCP Inspector or remote clients.

The server holds the database open like the daemon does; run one or the
other. To serve MCP from the daemon instead, set mcp.enabled = true and
mcp.addr in config.toml.

Examples:
  # Stdio mode
  promethean mcp serve

  # HTTP mode
  promethean mcp serve --port 8080

Desktop assistant configuration:
  {
    "mcpServers": {
      "promethean": {
        "command": "/path/to/promethean",
        "args": ["mcp", "serve"],
        "env": {"PROMETHEAN_PASSPHRASE": "..."}
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	requires(mcpServeCmd, needsUnlocked)
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if searchService == nil {
		return errors.New("search service not configured")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search:    searchService,
		Ingestion: ingestionService,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.RunStdio(cmd.Context())
}
