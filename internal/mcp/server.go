// Package mcp provides a Model Context Protocol server for sidecar.
// It exposes repository sync operations as MCP tools that any MCP-capable
// agent can use.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer creates an MCP server with all sidecar tools registered.
func NewServer(version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "sidecar",
		Version: version,
	}, nil)
	registerTools(server)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for read-only tools.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// syncAnnotations returns annotations for the sync tool. Sync writes note
// files but never destroys user content, and re-running it is a no-op when
// nothing changed upstream.
func syncAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		IdempotentHint:  true,
		OpenWorldHint:   boolPtr(false),
	}
}

// registerTools adds all sidecar tools to the server.
func registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_repos",
		Description: "List configured repository → vault pairings with their sync options.",
		Annotations: readOnlyAnnotations(),
	}, handleListRepos)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "repo_status",
		Description: "Show a configured repository's vault sync state: per-branch last-synced commit and exported note counts.",
		Annotations: readOnlyAnnotations(),
	}, handleRepoStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_repo",
		Description: "Export new or changed commits from a configured repository into its vault. Unchanged notes are skipped.",
		Annotations: syncAnnotations(),
	}, handleSyncRepo)
}
