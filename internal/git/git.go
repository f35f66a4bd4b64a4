// Package git provides git operations via exec for the sidecar CLI.
//
// All repository commands run with `git -C <dir>` so sidecar can sync
// repositories it is not executed inside of. Failures are translated to
// source errors carrying the git stderr text.
package git

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/gorewood/sidecar/internal/output"
)

// Repo runs git commands against one repository working tree.
type Repo struct {
	dir string
}

// Open returns a Repo for the given directory after verifying it is inside
// a git working tree.
func Open(ctx context.Context, dir string) (*Repo, error) {
	r := &Repo{dir: dir}
	out, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return nil, output.NewSourceError("not a git repository: "+dir, err)
	}
	if out != "true" {
		return nil, output.NewSourceError("not a git work tree: "+dir, nil)
	}
	return r, nil
}

// Dir returns the repository directory.
func (r *Repo) Dir() string {
	return r.dir
}

// run executes a git command in the repository and returns trimmed stdout.
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-C", r.dir}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", output.NewSourceError("git not found: ensure git is installed and in PATH", err)
		}

		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		return "", output.NewSourceError("git command failed: "+errMsg, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Available reports whether the git binary can be invoked at all.
func Available() bool {
	return exec.Command("git", "--version").Run() == nil
}

// Branches returns the repository's local branch names.
func (r *Repo) Branches(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if err != nil {
		return nil, err
	}
	var branches []string
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			branches = append(branches, name)
		}
	}
	return branches, nil
}

// IsReachable reports whether id is an ancestor of (or equal to) the branch
// tip, i.e. still part of the branch's current history. A commit that no
// longer exists or is no longer an ancestor reports false; only failures to
// invoke git at all surface as errors.
func (r *Repo) IsReachable(ctx context.Context, branch, id string) (bool, error) {
	full := []string{"-C", r.dir, "merge-base", "--is-ancestor", id, branch}
	cmd := exec.CommandContext(ctx, "git", full...)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return false, output.NewSourceError("git not found: ensure git is installed and in PATH", err)
	}
	// Non-zero exit: not an ancestor, or the object is gone (rebase + gc).
	return false, nil
}
