// Package hooks installs and inspects the post-commit git hook that keeps a
// vault synced automatically. The hook runs `sidecar sync <repo-id>` in the
// background after every commit, so exporting never delays the commit itself.
package hooks

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gorewood/sidecar/internal/output"
)

// marker identifies a hook script written by sidecar.
const marker = "sidecar sync"

// Status represents the installation state of the post-commit hook.
type Status struct {
	Installed bool `json:"installed"`
	Chained   bool `json:"chained"`
}

// Path returns the post-commit hook path for a repository.
func Path(repoPath string) string {
	return filepath.Join(repoPath, ".git", "hooks", "post-commit")
}

// Exists reports whether any hook file exists at the given path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Check reports whether the hook at path was installed by sidecar and
// whether it chains to a backed-up original hook.
func Check(path string) Status {
	content, err := os.ReadFile(path)
	if err != nil {
		return Status{}
	}

	text := string(content)
	if !strings.Contains(text, marker) {
		return Status{}
	}
	return Status{
		Installed: true,
		Chained:   strings.Contains(text, ".backup"),
	}
}

// Generate produces the post-commit hook script. The sync runs detached so
// committing stays fast; with withChain set, the script ends by running the
// backed-up original hook.
func Generate(repoID string, withChain bool) string {
	script := `#!/bin/sh
# sidecar post-commit hook
# Exports the new commit to the vault in the background.

if command -v sidecar >/dev/null 2>&1; then
  sidecar sync ` + repoID + ` >/dev/null 2>&1 &
fi
`

	if withChain {
		script += `
# Chain to original hook if it exists
if [ -x "$0.backup" ]; then
  exec "$0.backup" "$@"
fi
`
	}

	return script
}

// Backup moves an existing hook aside so installing never destroys it.
func Backup(path string) error {
	if err := os.Rename(path, path+".backup"); err != nil {
		return output.NewWriteError("failed to back up existing hook", err)
	}
	return nil
}

// Install writes the hook script, handling a pre-existing hook according to
// chain/force. Returns whether the original hook was backed up and chained.
func Install(path, repoID string, chain, force bool) (chained bool, err error) {
	existing := Exists(path)
	if existing && !force {
		if !chain {
			return false, output.NewConflictError(
				"hook already exists at " + path + "; use --chain to preserve or --force to overwrite")
		}
		if err := Backup(path); err != nil {
			return false, err
		}
	}

	script := Generate(repoID, chain && existing)
	// #nosec G306 -- hooks need execute permission
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		return false, output.NewWriteError("failed to write hook: "+path, err)
	}
	return chain && existing, nil
}

// Uninstall removes the sidecar hook and restores any backup.
// Returns whether a hook was removed and whether a backup was restored.
func Uninstall(path string) (removed, restored bool, err error) {
	if !Check(path).Installed {
		return false, false, nil
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false, false, output.NewWriteError("failed to remove hook: "+path, err)
	}

	backup := path + ".backup"
	if !Exists(backup) {
		return true, false, nil
	}
	if err := os.Rename(backup, path); err != nil {
		return true, false, output.NewWriteError("failed to restore backup hook", err)
	}
	return true, true, nil
}

// DescribeInstall returns what an install would do given the current state.
func DescribeInstall(existing, chain, force bool) string {
	if !existing {
		return "would install"
	}
	switch {
	case force:
		return "would overwrite existing hook"
	case chain:
		return "would back up and chain existing hook"
	default:
		return "would fail (hook exists, use --chain or --force)"
	}
}
