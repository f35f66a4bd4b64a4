package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorewood/sidecar/internal/git"
	"github.com/gorewood/sidecar/internal/render"
)

// Mode is the enumeration mode for one branch sync.
type Mode string

const (
	// Incremental enumerates only commits after the recorded sync point.
	Incremental Mode = "incremental"
	// FullScan re-enumerates the entire branch history. Entered when the
	// recorded sync point is no longer reachable (rebase, force-push) or
	// when the render configuration changed since the previous run.
	// It increases enumeration cost, not write cost: unchanged notes are
	// still skipped by the change detector.
	FullScan Mode = "full-scan"
)

// dateFormat renders commit timestamps in notes. Fixed format in UTC keeps
// rendering deterministic across machines.
const dateFormat = time.RFC3339

// BranchResult summarizes one branch sync.
type BranchResult struct {
	Branch       string `json:"branch"`
	Mode         Mode   `json:"mode"`
	Written      int    `json:"written"`
	Rewritten    int    `json:"rewritten"`
	Skipped      int    `json:"skipped"`
	IndexWritten bool   `json:"index_written"`
	Tip          string `json:"tip,omitempty"`
}

// SyncBranch brings one branch's notes and index up to date.
//
// Flow: the rewrite detector picks the mode, the source enumerates
// candidates, each candidate is rendered once and classified against the
// state store, and only new or changed notes are written. A note's state
// entry is recorded only after its write succeeds, so an aborted run leaves
// the store consistent with the filesystem.
func (e *Engine) SyncBranch(ctx context.Context, branch string) (*BranchResult, error) {
	state := e.store.Branch(branch)
	result := &BranchResult{Branch: branch, Mode: Incremental, Tip: state.LastSynced}

	since := state.LastSynced
	if since != "" {
		reachable, err := e.source.IsReachable(ctx, branch, since)
		if err != nil {
			return nil, err
		}
		if !reachable {
			result.Mode = FullScan
			since = ""
		}
	}

	// Toggled diff options or edited templates must reach notes exported
	// under the old configuration, not just commits in the incremental
	// window, so a render key mismatch re-enumerates the whole history.
	renderKey := e.renderKey()
	if since != "" && state.RenderFingerprint != renderKey {
		result.Mode = FullScan
		since = ""
	}

	// The initial-commit bound applies only to a branch's first-ever sync;
	// a full rescan always walks the whole history.
	limit := 0
	if state.LastSynced == "" {
		limit = e.opts.MaxInitialCommits
	}

	commits, err := e.source.Commits(ctx, branch, since, limit, e.opts.IncludeMerges)
	if err != nil {
		return nil, err
	}

	processed := make([]string, 0, len(commits))
	for _, c := range commits {
		content, fingerprint, err := e.renderCommit(ctx, branch, c)
		if err != nil {
			return nil, err
		}

		switch classify(state, c.ID, fingerprint) {
		case classNew:
			if err := e.write(e.vault.NotePath(branch, c.ID), content); err != nil {
				return nil, err
			}
			state.Record(c.ID, fingerprint)
			result.Written++
		case classChanged:
			if err := e.write(e.vault.NotePath(branch, c.ID), content); err != nil {
				return nil, err
			}
			state.Record(c.ID, fingerprint)
			result.Rewritten++
		case classUnchanged:
			result.Skipped++
		}
		processed = append(processed, c.ID)
	}

	if result.Mode == FullScan {
		state.SetOrder(processed)
	} else {
		state.MergeOrder(processed)
	}

	if len(commits) > 0 {
		state.LastSynced = commits[0].ID
	} else if result.Mode == FullScan {
		// An empty full enumeration (every commit filtered out) must not
		// keep the unreachable identifier, or every later run would
		// re-enter a full scan.
		state.LastSynced = ""
	}
	result.Tip = state.LastSynced
	state.RenderFingerprint = renderKey

	indexWritten, err := e.rebuildIndex(branch)
	if err != nil {
		return nil, err
	}
	result.IndexWritten = indexWritten

	return result, nil
}

// renderKey fingerprints everything that feeds rendered note content besides
// the commits themselves: the resolved templates and the diff capture
// options. Branch state stores the key of the previous run; a mismatch means
// existing notes may be stale even though the history did not move.
func (e *Engine) renderKey() string {
	var b strings.Builder
	b.WriteString(e.commitTmpl.Content)
	b.WriteByte(0)
	b.WriteString(e.indexTmpl.Content)
	b.WriteByte(0)
	fmt.Fprintf(&b, "%t %t %t", e.opts.IncludeDiffstat, e.opts.IncludeDiff, e.opts.SkipBinaryDiff)
	return render.Fingerprint([]byte(b.String()))
}

// renderCommit renders a commit note exactly once, returning the content and
// its fingerprint for both the idempotence check and the eventual write.
func (e *Engine) renderCommit(ctx context.Context, branch string, c git.Commit) ([]byte, string, error) {
	note := render.CommitNote{
		Title:   c.Subject,
		ID:      c.ID,
		ShortID: c.ShortID,
		Author:  c.Author,
		Email:   c.Email,
		Date:    c.Date.UTC().Format(dateFormat),
		Repo:    e.repoID,
		Branch:  branch,
		Parents: c.Parents,
		Body:    c.Body,
	}

	if e.opts.IncludeDiffstat {
		diffstat, err := e.source.Diffstat(ctx, c.ID)
		if err != nil {
			return nil, "", err
		}
		note.Diffstat = diffstat
	}
	if e.opts.IncludeDiff {
		diff, err := e.source.Diff(ctx, c.ID, e.opts.SkipBinaryDiff)
		if err != nil {
			return nil, "", err
		}
		note.Diff = diff
	}

	content := []byte(render.Render(e.commitTmpl, render.CommitContext(note)))
	return content, render.Fingerprint(content), nil
}

// rebuildIndex regenerates the branch index note from the state store's
// ordered export list. The index follows the same idempotence discipline as
// commit notes: its fingerprint is compared against the stored one and the
// write is skipped when nothing changed.
func (e *Engine) rebuildIndex(branch string) (bool, error) {
	state := e.store.Branch(branch)

	content := []byte(render.Render(e.indexTmpl, render.IndexContext(e.repoID, branch, state.Order)))
	fingerprint := render.Fingerprint(content)
	if fingerprint == state.IndexFingerprint {
		return false, nil
	}

	if err := e.write(e.vault.IndexPath(branch), content); err != nil {
		return false, err
	}
	state.IndexFingerprint = fingerprint
	return true, nil
}
