package main

import (
	"github.com/spf13/cobra"

	"github.com/gorewood/sidecar/internal/config"
	"github.com/gorewood/sidecar/internal/output"
)

// newRemoveCmd creates the remove command.
func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <repo-id>",
		Short: "Remove a configured repository",
		Long: `Remove a repository from the configuration.

Only the registry entry is removed; nothing in the vault is deleted, and
the repository itself is never touched.`,
		Args: cobra.ExactArgs(1),
		RunE: runRemove,
	}
}

// runRemove executes the remove command.
func runRemove(cmd *cobra.Command, args []string) error {
	printer := newPrinter(cmd)

	reg, err := config.Load()
	if err != nil {
		printer.Error(err)
		return err
	}

	id := args[0]
	if !reg.Remove(id) {
		err := output.NewUserError("repo not found: " + id)
		printer.Error(err)
		return err
	}

	if err := config.Save(reg); err != nil {
		printer.Error(err)
		return err
	}

	return printer.Success(map[string]any{
		"message": "Removed repo '" + id + "'. No vault files were deleted.",
		"id":      id,
	})
}
