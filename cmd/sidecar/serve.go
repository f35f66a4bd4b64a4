// Package main provides the entry point for the sidecar CLI.
package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	sidecarmcp "github.com/gorewood/sidecar/internal/mcp"
)

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run sidecar as a Model Context Protocol (MCP) server over stdio.

This exposes sidecar operations as MCP tools that any MCP-capable agent
environment can use (Claude Code, Cursor, Windsurf, Gemini CLI, etc).

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "sidecar": {
        "command": "sidecar",
        "args": ["serve"]
      }
    }
  }

Available tools: list_repos, repo_status, sync_repo`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server := sidecarmcp.NewServer(buildVersion())
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
