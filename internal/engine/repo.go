package engine

import (
	"context"

	"github.com/gorewood/sidecar/internal/syncstate"
)

// BranchFailure records a branch whose sync failed.
type BranchFailure struct {
	Branch string `json:"branch"`
	Err    error  `json:"-"`
	Error  string `json:"error"`
}

// RepoResult summarizes a whole-repository sync.
type RepoResult struct {
	RepoID   string          `json:"repo"`
	Branches []BranchResult  `json:"branches"`
	Failures []BranchFailure `json:"failures,omitempty"`
}

// Written returns the total number of notes written across branches.
func (r *RepoResult) Written() int {
	total := 0
	for _, b := range r.Branches {
		total += b.Written + b.Rewritten
	}
	return total
}

// SyncRepo synchronizes the given branches sequentially. An empty branch
// list means all local branches. A failing branch is recorded and skipped;
// the remaining branches still sync. The state store is persisted after
// each successful branch so an interrupted run loses at most one branch of
// bookkeeping (the notes themselves are always consistent: each write is
// atomic and recorded only after it succeeds).
func (e *Engine) SyncRepo(ctx context.Context, branches []string) (*RepoResult, error) {
	if len(branches) == 0 {
		all, err := e.source.Branches(ctx)
		if err != nil {
			return nil, err
		}
		branches = all
	}

	result := &RepoResult{RepoID: e.repoID}
	for _, branch := range branches {
		branchResult, err := e.SyncBranch(ctx, branch)
		if err != nil {
			result.Failures = append(result.Failures, BranchFailure{
				Branch: branch,
				Err:    err,
				Error:  err.Error(),
			})
			continue
		}
		result.Branches = append(result.Branches, *branchResult)

		if err := syncstate.Save(e.vault, e.store); err != nil {
			return result, err
		}
	}

	return result, nil
}
