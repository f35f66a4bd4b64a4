package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gorewood/sidecar/internal/config"
	"github.com/gorewood/sidecar/internal/engine"
	"github.com/gorewood/sidecar/internal/output"
)

// newSyncCmd creates the sync command.
func newSyncCmd() *cobra.Command {
	var allFlag bool

	cmd := &cobra.Command{
		Use:   "sync [repo-id]",
		Short: "Export new or changed commits into the vault",
		Long: `Export new or changed commits from a configured repository into its vault.

Each commit becomes one Markdown note under <vault>/branches/<branch>/, and
every branch gets a regenerated index note. Notes whose rendered content is
unchanged are skipped entirely; a rebased branch triggers a full rescan.

With exactly one repository configured, the id may be omitted.

Examples:
  sidecar sync my-repo        # Sync one repository
  sidecar sync                # Sync the only configured repository
  sidecar sync --all          # Sync every configured repository
  sidecar sync my-repo --json # Structured per-branch results`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			return runSync(cmd, id, allFlag)
		},
	}

	cmd.Flags().BoolVar(&allFlag, "all", false, "Sync all configured repositories")
	return cmd
}

// runSync executes the sync command.
func runSync(cmd *cobra.Command, id string, all bool) error {
	printer := newPrinter(cmd)

	reg, err := config.Load()
	if err != nil {
		printer.Error(err)
		return err
	}

	if all {
		return runSyncAll(cmd, printer, reg)
	}

	repo, err := resolveRepo(reg, id)
	if err != nil {
		printer.Error(err)
		return err
	}

	result, err := engine.Run(cmd.Context(), repo)
	if err != nil {
		printer.Error(err)
		return err
	}

	reportRepoResult(printer, result)

	// A single-repo sync fails fast: any branch failure is an error.
	if len(result.Failures) > 0 {
		return output.NewSourceError(
			fmt.Sprintf("%d branch(es) failed to sync", len(result.Failures)),
			result.Failures[0].Err)
	}
	return nil
}

// runSyncAll syncs every configured repository, collecting failures instead
// of aborting, and reports a summary at the end.
func runSyncAll(cmd *cobra.Command, printer *output.Printer, reg *config.Registry) error {
	if len(reg.Repos) == 0 {
		return printer.Success(map[string]any{"message": "No repositories configured. Run 'sidecar add' first."})
	}

	var results []*engine.RepoResult
	failed := map[string]string{}

	for _, repo := range reg.Repos {
		result, err := engine.Run(cmd.Context(), repo)
		if err != nil {
			failed[repo.ID] = err.Error()
			continue
		}
		if len(result.Failures) > 0 {
			failed[repo.ID] = fmt.Sprintf("%d branch(es) failed", len(result.Failures))
		}
		results = append(results, result)
	}

	if printer.IsJSON() {
		_ = printer.WriteJSON(map[string]any{
			"results": results,
			"failed":  failed,
		})
	} else {
		for _, r := range results {
			reportRepoResult(printer, r)
		}
		for id, msg := range failed {
			printer.Warn("%s: %s", id, msg)
		}
	}

	if len(failed) > 0 {
		return output.NewSystemError(fmt.Sprintf("%d of %d repositories failed to sync", len(failed), len(reg.Repos)))
	}
	return nil
}

// resolveRepo finds a repo by id; an empty id resolves to the only
// configured repo when exactly one exists.
func resolveRepo(reg *config.Registry, id string) (*config.Repo, error) {
	if id == "" {
		if len(reg.Repos) == 1 {
			return reg.Repos[0], nil
		}
		return nil, output.NewUserError("repository id required. Run 'sidecar list' to see configured repos")
	}
	repo := reg.Find(id)
	if repo == nil {
		return nil, output.NewUserError("repo not found: " + id)
	}
	return repo, nil
}

// reportRepoResult prints one repository's sync outcome.
func reportRepoResult(printer *output.Printer, result *engine.RepoResult) {
	if printer.IsJSON() {
		_ = printer.WriteJSON(result)
		return
	}

	for _, b := range result.Branches {
		mode := ""
		if b.Mode == engine.FullScan {
			mode = " (full rescan)"
		}
		printer.Println(fmt.Sprintf("[%s] %s%s: %d new, %d rewritten, %d unchanged",
			result.RepoID, b.Branch, mode, b.Written, b.Rewritten, b.Skipped))
	}
	for _, f := range result.Failures {
		printer.Warn("[%s] %s: %s", result.RepoID, f.Branch, f.Error)
	}
}
