// Package syncstate persists what has already been exported to a vault, so
// repeated sync runs can skip unchanged work.
//
// The store lives at <vault>/.sidecar/cache.json and maps each branch to its
// last-synced commit identifier and the fingerprint of every note already
// written. It is loaded once at the start of a run, mutated in memory, and
// persisted atomically after each branch.
package syncstate

import (
	"encoding/json"
	"errors"
	"os"
	"slices"

	"github.com/gorewood/sidecar/internal/output"
	"github.com/gorewood/sidecar/internal/vault"
)

// Branch is the per-branch sync record.
//
// Invariant: every identifier in Notes corresponds to a note file that
// currently exists with exactly that fingerprint. An entry is recorded only
// after the note's atomic write succeeds.
type Branch struct {
	// LastSynced is the branch tip at the end of the previous run.
	// Empty means the branch has never been synced.
	LastSynced string `json:"lastSynced,omitempty"`

	// Notes maps commit identifier to the fingerprint of its note content.
	Notes map[string]string `json:"notes"`

	// Order lists exported commit identifiers newest first. It backs the
	// index builder, which must not depend on filesystem ordering. After a
	// history rewrite it is rebuilt from the full enumeration, so commits no
	// longer reachable drop out of the index while their note files (and
	// Notes entries) stay in place.
	Order []string `json:"order,omitempty"`

	// IndexFingerprint is the fingerprint of the branch index note, used to
	// skip index rewrites when membership has not changed.
	IndexFingerprint string `json:"index,omitempty"`

	// RenderFingerprint identifies the render configuration (templates and
	// diff options) of the previous run. A mismatch forces a full
	// re-enumeration so configuration changes reach already-exported notes.
	RenderFingerprint string `json:"render,omitempty"`
}

// Store is the full per-vault sync state.
type Store struct {
	Branches map[string]*Branch `json:"branches"`
}

// Load reads the store from the vault. A missing file yields an empty
// default; an unreadable or malformed file is a state error and is never
// silently discarded.
func Load(v *vault.Vault) (*Store, error) {
	data, err := os.ReadFile(v.StatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Store{Branches: map[string]*Branch{}}, nil
		}
		return nil, output.NewStateError("failed to read sync state: "+v.StatePath(), err)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, output.NewStateError("corrupt sync state: "+v.StatePath(), err)
	}
	if store.Branches == nil {
		store.Branches = map[string]*Branch{}
	}
	for name, b := range store.Branches {
		if b == nil {
			store.Branches[name] = &Branch{Notes: map[string]string{}}
		} else if b.Notes == nil {
			b.Notes = map[string]string{}
		}
	}
	return &store, nil
}

// Save persists the store atomically into the vault.
func Save(v *vault.Vault, store *Store) error {
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return output.NewStateError("failed to serialize sync state", err)
	}
	data = append(data, '\n')
	return vault.WriteAtomic(v.StatePath(), data)
}

// Branch returns the record for a branch, creating it on first use.
func (s *Store) Branch(name string) *Branch {
	b, ok := s.Branches[name]
	if !ok {
		b = &Branch{Notes: map[string]string{}}
		s.Branches[name] = b
	}
	return b
}

// LastSynced returns the recorded last-synced identifier for a branch,
// or "" if the branch was never synced.
func (s *Store) LastSynced(name string) string {
	if b, ok := s.Branches[name]; ok {
		return b.LastSynced
	}
	return ""
}

// Record stores the fingerprint for a commit's note.
// Call only after the note write has succeeded.
func (b *Branch) Record(id, fingerprint string) {
	b.Notes[id] = fingerprint
}

// Fingerprint returns the stored fingerprint for a commit, or ("", false)
// if the commit has never been exported.
func (b *Branch) Fingerprint(id string) (string, bool) {
	fp, ok := b.Notes[id]
	return fp, ok
}

// SetOrder replaces the exported-commit ordering (newest first).
// Used after a full rescan, which re-enumerates the whole branch.
func (b *Branch) SetOrder(ids []string) {
	b.Order = slices.Clone(ids)
}

// MergeOrder prepends newly exported identifiers (newest first) to the
// existing ordering, skipping any already present. Incremental candidates
// are strictly newer than everything exported before, so prepending keeps
// the whole list newest first.
func (b *Branch) MergeOrder(newestFirst []string) {
	merged := make([]string, 0, len(newestFirst)+len(b.Order))
	for _, id := range newestFirst {
		if !slices.Contains(b.Order, id) {
			merged = append(merged, id)
		}
	}
	b.Order = append(merged, b.Order...)
}
