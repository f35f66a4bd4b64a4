package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/sidecar/internal/config"
	"github.com/gorewood/sidecar/internal/engine"
	"github.com/gorewood/sidecar/internal/syncstate"
	"github.com/gorewood/sidecar/internal/vault"
)

// RepoSummary is a configured repository for output.
type RepoSummary struct {
	ID        string   `json:"id"         jsonschema:"registry id"`
	Name      string   `json:"name"       jsonschema:"display name"`
	RepoPath  string   `json:"repo_path"  jsonschema:"git repository path"`
	VaultPath string   `json:"vault_path" jsonschema:"vault output path"`
	Branches  []string `json:"branches,omitempty" jsonschema:"configured branches (empty = all local branches)"`
}

// findRepo loads the registry and resolves a repo id; an empty id resolves
// to the only configured repo when exactly one exists.
func findRepo(id string) (*config.Repo, error) {
	reg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if id == "" {
		if len(reg.Repos) == 1 {
			return reg.Repos[0], nil
		}
		return nil, fmt.Errorf("repo id required when %d repositories are configured", len(reg.Repos))
	}
	repo := reg.Find(id)
	if repo == nil {
		return nil, fmt.Errorf("repo not found: %s", id)
	}
	return repo, nil
}

// --- list_repos tool ---

// ListReposInput is the input for the list_repos tool (no parameters needed).
type ListReposInput struct{}

// ListReposOutput is the output for the list_repos tool.
type ListReposOutput struct {
	Repos []RepoSummary `json:"repos" jsonschema:"configured repositories"`
}

func handleListRepos(_ context.Context, _ *mcp.CallToolRequest, _ ListReposInput) (*mcp.CallToolResult, ListReposOutput, error) {
	reg, err := config.Load()
	if err != nil {
		return nil, ListReposOutput{}, fmt.Errorf("loading config: %w", err)
	}

	out := ListReposOutput{Repos: []RepoSummary{}}
	for _, r := range reg.Repos {
		out.Repos = append(out.Repos, RepoSummary{
			ID:        r.ID,
			Name:      r.Name,
			RepoPath:  r.RepoPath,
			VaultPath: r.VaultPath,
			Branches:  r.Branches,
		})
	}
	return nil, out, nil
}

// --- repo_status tool ---

// RepoStatusInput is the input for the repo_status tool.
type RepoStatusInput struct {
	ID string `json:"id,omitempty" jsonschema:"repo id (optional when exactly one repo is configured)"`
}

// BranchStatus is one branch's sync state for output.
type BranchStatus struct {
	Branch     string `json:"branch"                jsonschema:"branch name"`
	LastSynced string `json:"last_synced,omitempty" jsonschema:"last-synced commit identifier"`
	Notes      int    `json:"notes"                 jsonschema:"number of exported commit notes"`
}

// RepoStatusOutput is the output for the repo_status tool.
type RepoStatusOutput struct {
	Repo     RepoSummary    `json:"repo"     jsonschema:"the configured repository"`
	Branches []BranchStatus `json:"branches" jsonschema:"per-branch sync state"`
}

func handleRepoStatus(_ context.Context, _ *mcp.CallToolRequest, in RepoStatusInput) (*mcp.CallToolResult, RepoStatusOutput, error) {
	repo, err := findRepo(in.ID)
	if err != nil {
		return nil, RepoStatusOutput{}, err
	}

	store, err := syncstate.Load(vault.New(repo.VaultPath))
	if err != nil {
		return nil, RepoStatusOutput{}, fmt.Errorf("loading sync state: %w", err)
	}

	out := RepoStatusOutput{
		Repo: RepoSummary{
			ID:        repo.ID,
			Name:      repo.Name,
			RepoPath:  repo.RepoPath,
			VaultPath: repo.VaultPath,
			Branches:  repo.Branches,
		},
		Branches: []BranchStatus{},
	}
	for name, b := range store.Branches {
		out.Branches = append(out.Branches, BranchStatus{
			Branch:     name,
			LastSynced: b.LastSynced,
			Notes:      len(b.Notes),
		})
	}
	return nil, out, nil
}

// --- sync_repo tool ---

// SyncRepoInput is the input for the sync_repo tool.
type SyncRepoInput struct {
	ID string `json:"id,omitempty" jsonschema:"repo id (optional when exactly one repo is configured)"`
}

// SyncRepoOutput is the output for the sync_repo tool.
type SyncRepoOutput struct {
	Repo     string                 `json:"repo"               jsonschema:"repo id"`
	Written  int                    `json:"written"            jsonschema:"notes written or rewritten"`
	Branches []engine.BranchResult  `json:"branches"           jsonschema:"per-branch results"`
	Failures []engine.BranchFailure `json:"failures,omitempty" jsonschema:"branches that failed to sync"`
}

func handleSyncRepo(ctx context.Context, _ *mcp.CallToolRequest, in SyncRepoInput) (*mcp.CallToolResult, SyncRepoOutput, error) {
	repo, err := findRepo(in.ID)
	if err != nil {
		return nil, SyncRepoOutput{}, err
	}

	result, err := engine.Run(ctx, repo)
	if err != nil {
		return nil, SyncRepoOutput{}, fmt.Errorf("sync failed: %w", err)
	}

	return nil, SyncRepoOutput{
		Repo:     result.RepoID,
		Written:  result.Written(),
		Branches: result.Branches,
		Failures: result.Failures,
	}, nil
}
