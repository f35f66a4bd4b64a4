package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gorewood/sidecar/internal/config"
	"github.com/gorewood/sidecar/internal/hooks"
	"github.com/gorewood/sidecar/internal/output"
)

// newHooksCmd creates the hooks parent command with subcommands.
func newHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Manage the post-commit auto-sync hook",
		Long: `Manage the git hook that syncs the vault after every commit.

The post-commit hook runs 'sidecar sync' in the background, so new commits
appear in the vault without slowing the commit down.

Examples:
  sidecar hooks status              # Show hook status per configured repo
  sidecar hooks install my-repo     # Install the post-commit hook
  sidecar hooks install --chain     # Install, preserving an existing hook
  sidecar hooks uninstall my-repo   # Remove the hook, restore any backup`,
	}

	cmd.AddCommand(newHooksStatusCmd())
	cmd.AddCommand(newHooksInstallCmd())
	cmd.AddCommand(newHooksUninstallCmd())
	return cmd
}

// newHooksStatusCmd creates the hooks status subcommand.
func newHooksStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show hook status for every configured repository",
		RunE:  runHooksStatus,
	}
}

// runHooksStatus executes the hooks status command.
func runHooksStatus(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)

	reg, err := config.Load()
	if err != nil {
		printer.Error(err)
		return err
	}

	type repoHook struct {
		ID     string       `json:"id"`
		Path   string       `json:"path"`
		Status hooks.Status `json:"status"`
	}
	statuses := make([]repoHook, 0, len(reg.Repos))
	for _, repo := range reg.Repos {
		path := hooks.Path(repo.RepoPath)
		statuses = append(statuses, repoHook{ID: repo.ID, Path: path, Status: hooks.Check(path)})
	}

	if printer.IsJSON() {
		return printer.WriteJSON(map[string]any{"hooks": statuses})
	}

	if len(statuses) == 0 {
		printer.Println("No repositories configured. Run 'sidecar add' to register one.")
		return nil
	}
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		state := "not installed"
		switch {
		case s.Status.Installed && s.Status.Chained:
			state = "installed (chained)"
		case s.Status.Installed:
			state = "installed"
		}
		rows = append(rows, []string{s.ID, state})
	}
	printer.Table([]string{"ID", "POST-COMMIT"}, rows)
	return nil
}

// newHooksInstallCmd creates the hooks install subcommand.
func newHooksInstallCmd() *cobra.Command {
	var chain bool
	var force bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "install [repo-id]",
		Short: "Install the post-commit auto-sync hook",
		Long: `Install the post-commit hook into a configured repository.

Use --chain to preserve an existing hook (it runs after the sync).
Use --force to overwrite an existing hook without backup.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHooksInstall(cmd, args, chain, force, dryRun)
		},
	}

	cmd.Flags().BoolVar(&chain, "chain", false, "Preserve an existing hook, run it after the sync")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing hook without backup")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without doing it")

	return cmd
}

// runHooksInstall executes the hooks install command.
func runHooksInstall(cmd *cobra.Command, args []string, chain, force, dryRun bool) error {
	printer := newPrinter(cmd)

	repo, err := resolveHookRepo(args)
	if err != nil {
		printer.Error(err)
		return err
	}
	path := hooks.Path(repo.RepoPath)

	if dryRun {
		action := hooks.DescribeInstall(hooks.Exists(path), chain, force)
		if printer.IsJSON() {
			return printer.WriteJSON(map[string]any{
				"repo":   repo.ID,
				"path":   path,
				"action": action,
			})
		}
		printer.Println(fmt.Sprintf("%s: %s (%s)", repo.ID, action, path))
		return nil
	}

	chained, err := hooks.Install(path, repo.ID, chain, force)
	if err != nil {
		printer.Error(err)
		return err
	}

	msg := "Installed post-commit hook for '" + repo.ID + "'"
	if chained {
		msg += " (existing hook backed up and chained)"
	}
	return printer.Success(map[string]any{
		"message": msg,
		"repo":    repo.ID,
		"chained": chained,
	})
}

// newHooksUninstallCmd creates the hooks uninstall subcommand.
func newHooksUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall [repo-id]",
		Short: "Remove the post-commit hook and restore any backup",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHooksUninstall,
	}
}

// runHooksUninstall executes the hooks uninstall command.
func runHooksUninstall(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)

	repo, err := resolveHookRepo(args)
	if err != nil {
		printer.Error(err)
		return err
	}
	path := hooks.Path(repo.RepoPath)

	removed, restored, err := hooks.Uninstall(path)
	if err != nil {
		printer.Error(err)
		return err
	}

	msg := "No sidecar hook installed for '" + repo.ID + "'"
	if removed {
		msg = "Removed post-commit hook for '" + repo.ID + "'"
		if restored {
			msg += " (original hook restored)"
		}
	}
	return printer.Success(map[string]any{
		"message":  msg,
		"repo":     repo.ID,
		"removed":  removed,
		"restored": restored,
	})
}

// resolveHookRepo resolves a hooks subcommand's optional repo-id argument
// and verifies the repository's hooks directory exists.
func resolveHookRepo(args []string) (*config.Repo, error) {
	reg, err := config.Load()
	if err != nil {
		return nil, err
	}
	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	repo, err := resolveRepo(reg, id)
	if err != nil {
		return nil, err
	}

	hooksDir := filepath.Dir(hooks.Path(repo.RepoPath))
	if _, err := os.Stat(hooksDir); err != nil {
		return nil, output.NewSourceError("no .git/hooks directory in "+repo.RepoPath, err)
	}
	return repo, nil
}
