package engine

import (
	"context"

	"github.com/gorewood/sidecar/internal/config"
	"github.com/gorewood/sidecar/internal/git"
	"github.com/gorewood/sidecar/internal/syncstate"
	"github.com/gorewood/sidecar/internal/vault"
)

// Run performs one complete sync of a configured repository: open the
// repository, take the vault's advisory lock for the duration of the run,
// load the state store, sync every configured branch, and persist.
func Run(ctx context.Context, repo *config.Repo) (*RepoResult, error) {
	source, err := git.Open(ctx, repo.RepoPath)
	if err != nil {
		return nil, err
	}

	v := vault.New(repo.VaultPath)
	lock, err := vault.NewLock(v)
	if err != nil {
		return nil, err
	}
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	store, err := syncstate.Load(v)
	if err != nil {
		return nil, err
	}

	eng, err := New(source, v, store, repo.ID, repo.Options)
	if err != nil {
		return nil, err
	}

	return eng.SyncRepo(ctx, repo.Branches)
}
