// Package vault manages the on-disk layout of an export vault and provides
// crash-safe writes into it.
//
// Layout:
//
//	<vault>/.sidecar/cache.json          sync state store
//	<vault>/.sidecar/sync.lock           advisory run lock
//	<vault>/.sidecar/templates/          per-vault template overrides
//	<vault>/branches/<branch>/<sha>.md   one note per commit
//	<vault>/branches/<branch>/index.md   per-branch index note
package vault

import (
	"os"
	"path/filepath"

	"github.com/gorewood/sidecar/internal/output"
)

// SidecarDirName is the vault-internal directory holding sidecar state.
const SidecarDirName = ".sidecar"

// Vault locates the pieces of an export vault on disk.
type Vault struct {
	root string
}

// New returns a Vault rooted at the given directory.
func New(root string) *Vault {
	return &Vault{root: root}
}

// Root returns the vault root directory.
func (v *Vault) Root() string {
	return v.root
}

// SidecarDir returns <vault>/.sidecar.
func (v *Vault) SidecarDir() string {
	return filepath.Join(v.root, SidecarDirName)
}

// StatePath returns the sync state store file path.
func (v *Vault) StatePath() string {
	return filepath.Join(v.SidecarDir(), "cache.json")
}

// LockPath returns the advisory lock file path.
func (v *Vault) LockPath() string {
	return filepath.Join(v.SidecarDir(), "sync.lock")
}

// TemplatesDir returns the template override directory.
func (v *Vault) TemplatesDir() string {
	return filepath.Join(v.SidecarDir(), "templates")
}

// BranchDir returns the note directory for a branch.
// Branch names containing slashes map to nested directories.
func (v *Vault) BranchDir(branch string) string {
	return filepath.Join(v.root, "branches", filepath.FromSlash(branch))
}

// NotePath returns the note file path for a commit on a branch.
func (v *Vault) NotePath(branch, id string) string {
	return filepath.Join(v.BranchDir(branch), id+".md")
}

// IndexPath returns the index note path for a branch.
func (v *Vault) IndexPath(branch string) string {
	return filepath.Join(v.BranchDir(branch), "index.md")
}

// EnsureDir creates a directory (and parents) if it does not exist.
// Creating an already-existing directory is not an error.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return output.NewWriteError("failed to create directory: "+dir, err)
	}
	return nil
}

// WriteAtomic writes content to path with crash-safe semantics: either path
// ends up containing exactly content, or any pre-existing file is left
// untouched. The content is staged in a temp file in the same directory and
// moved into place with a single rename; the temp file is removed on failure.
func WriteAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*"+filepath.Ext(path))
	if err != nil {
		return output.NewWriteError("failed to create temp file in "+dir, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return output.NewWriteError("failed to write "+path, err)
	}
	if err := tmp.Close(); err != nil {
		return output.NewWriteError("failed to close temp file for "+path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return output.NewWriteError("failed to replace "+path, err)
	}
	return nil
}
