// Package engine implements the incremental synchronization core: deciding,
// per branch and per commit, whether a note must be created, rewritten, or
// left untouched, and keeping the vault's sync state consistent with what is
// actually on disk.
package engine

import (
	"context"

	"github.com/gorewood/sidecar/internal/config"
	"github.com/gorewood/sidecar/internal/git"
	"github.com/gorewood/sidecar/internal/render"
	"github.com/gorewood/sidecar/internal/syncstate"
	"github.com/gorewood/sidecar/internal/vault"
)

// Source enumerates commit history for the engine. The real implementation
// shells out to git; tests inject fakes with scripted histories.
type Source interface {
	// Branches lists the repository's local branch names.
	Branches(ctx context.Context) ([]string, error)
	// Commits enumerates a branch newest first. A non-empty since bounds the
	// query to commits after since (exclusive); empty since means full
	// history. limit > 0 caps the result to the newest limit commits.
	Commits(ctx context.Context, branch, since string, limit int, includeMerges bool) ([]git.Commit, error)
	// IsReachable reports whether id is still part of the branch's history.
	IsReachable(ctx context.Context, branch, id string) (bool, error)
	// Diffstat returns the change statistics text for one commit.
	Diffstat(ctx context.Context, id string) (string, error)
	// Diff returns the full diff text for one commit.
	Diff(ctx context.Context, id string, skipBinary bool) (string, error)
}

// WriteFunc writes note content to a path with atomic semantics.
type WriteFunc func(path string, content []byte) error

// Engine synchronizes one repository into one vault.
//
// The sync state store is a single shared mutable resource: branches are
// processed sequentially and all writes go through one Engine. Rendering and
// fingerprinting are pure, so this is a correctness boundary, not a
// throughput one.
type Engine struct {
	source Source
	vault  *vault.Vault
	store  *syncstate.Store
	repoID string
	opts   config.Options

	commitTmpl *render.Template
	indexTmpl  *render.Template

	write WriteFunc
}

// New creates an Engine. Templates are resolved once per run: a vault
// override wins over the built-in default.
func New(source Source, v *vault.Vault, store *syncstate.Store, repoID string, opts config.Options) (*Engine, error) {
	commitTmpl, err := render.LoadTemplate("commit", v.TemplatesDir())
	if err != nil {
		return nil, err
	}
	indexTmpl, err := render.LoadTemplate("index", v.TemplatesDir())
	if err != nil {
		return nil, err
	}

	return &Engine{
		source:     source,
		vault:      v,
		store:      store,
		repoID:     repoID,
		opts:       opts,
		commitTmpl: commitTmpl,
		indexTmpl:  indexTmpl,
		write:      vault.WriteAtomic,
	}, nil
}

// SetWriteFunc replaces the note writer. Used by tests to simulate write
// failures and count filesystem writes.
func (e *Engine) SetWriteFunc(w WriteFunc) {
	e.write = w
}

// Store returns the engine's sync state store.
func (e *Engine) Store() *syncstate.Store {
	return e.store
}
