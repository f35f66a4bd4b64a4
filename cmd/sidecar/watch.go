package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/gorewood/sidecar/internal/config"
	"github.com/gorewood/sidecar/internal/engine"
	"github.com/gorewood/sidecar/internal/output"
)

// watchDebounce is how long to wait after the last ref change before syncing.
// Git updates several files per operation; the delay coalesces them into one run.
const watchDebounce = 2 * time.Second

// newWatchCmd creates the watch command.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [repo-id]",
		Short: "Watch a repository and sync on new commits",
		Long: `Watch a repository's refs and sync the vault whenever they change.

Runs an initial sync, then monitors the repository's .git directory for
ref updates (commits, merges, branch moves) and triggers an incremental
sync after a short debounce. Press Ctrl-C to stop.

Examples:
  sidecar watch           # Watch the only configured repository
  sidecar watch myproject # Watch a specific repository`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
}

// runWatch executes the watch command.
func runWatch(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)

	reg, err := config.Load()
	if err != nil {
		return err
	}
	var id string
	if len(args) > 0 {
		id = args[0]
	}
	repo, err := resolveRepo(reg, id)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	// Initial sync so the vault is current before we start waiting.
	if err := watchSync(ctx, printer, repo); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return output.NewSystemError("failed to create watcher: " + err.Error())
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range watchDirs(repo.RepoPath) {
		if err := watcher.Add(dir); err != nil {
			return output.NewSystemError(fmt.Sprintf("failed to watch %s: %s", dir, err))
		}
	}

	printer.Println("Watching " + repo.RepoPath + " (Ctrl-C to stop)")

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			printer.Println("Stopping")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(watchDebounce)
			}
		case <-fire:
			timer = nil
			fire = nil
			if err := watchSync(ctx, printer, repo); err != nil {
				// Keep watching through transient failures; report and continue.
				printer.Warn("sync failed: %s", err)
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printer.Warn("watch error: %s", werr)
		}
	}
}

// watchDirs returns the directories to monitor for ref changes. Refs can
// live as loose files under .git/refs or be packed into .git/packed-refs,
// and HEAD moves on branch switches.
func watchDirs(repoPath string) []string {
	gitDir := filepath.Join(repoPath, ".git")
	dirs := []string{gitDir}
	refs := filepath.Join(gitDir, "refs", "heads")
	if _, err := os.Stat(refs); err == nil {
		dirs = append(dirs, refs)
	}
	return dirs
}

// watchSync runs one sync pass and reports the outcome.
func watchSync(ctx context.Context, printer *output.Printer, repo *config.Repo) error {
	result, err := engine.Run(ctx, repo)
	if err != nil {
		return err
	}
	reportRepoResult(printer, result)
	return nil
}
