package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/sidecar/internal/config"
)

// newListCmd creates the list command.
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured repositories",
		Long: `List every configured repository → vault pairing.

Examples:
  sidecar list          # Table of configured repos
  sidecar list --json   # Structured output for scripting`,
		RunE: runList,
	}
}

// runList executes the list command.
func runList(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)

	reg, err := config.Load()
	if err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.WriteJSON(map[string]any{"repos": reg.Repos})
	}

	if len(reg.Repos) == 0 {
		printer.Println("No repositories configured. Run 'sidecar add' to register one.")
		return nil
	}

	rows := make([][]string, 0, len(reg.Repos))
	for _, r := range reg.Repos {
		branches := "all"
		if len(r.Branches) > 0 {
			branches = strings.Join(r.Branches, ", ")
		}
		rows = append(rows, []string{r.ID, r.Name, r.RepoPath, r.VaultPath, branches})
	}
	printer.Table([]string{"ID", "NAME", "REPO", "VAULT", "BRANCHES"}, rows)
	return nil
}
