package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gorewood/sidecar/internal/config"
	"github.com/gorewood/sidecar/internal/git"
	"github.com/gorewood/sidecar/internal/output"
	"github.com/gorewood/sidecar/internal/syncstate"
	"github.com/gorewood/sidecar/internal/vault"
)

// checkStatus represents the result of a health check.
type checkStatus string

const (
	checkPass checkStatus = "pass"
	checkWarn checkStatus = "warn"
	checkFail checkStatus = "fail"
)

// checkResult holds the result of a single health check.
type checkResult struct {
	Name    string      `json:"name"`
	Status  checkStatus `json:"status"`
	Message string      `json:"message"`
}

// newDoctorCmd creates the doctor command.
func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check environment and configuration health",
		Long: `Check sidecar's environment and configuration health.

Verifies that git is available, the configuration is readable, and every
configured repository and vault is in working order, including that each
vault's sync state loads cleanly.

Examples:
  sidecar doctor          # Run all health checks
  sidecar doctor --json   # Output results as JSON`,
		RunE: runDoctor,
	}
}

// runDoctor executes the doctor command.
func runDoctor(cmd *cobra.Command, _ []string) error {
	printer := newPrinter(cmd)

	checks := []checkResult{checkGit()}

	reg, err := config.Load()
	if err != nil {
		checks = append(checks, checkResult{
			Name:    "config",
			Status:  checkFail,
			Message: err.Error(),
		})
	} else {
		checks = append(checks, checkResult{
			Name:    "config",
			Status:  checkPass,
			Message: fmt.Sprintf("%d repositories configured (%s)", len(reg.Repos), config.Path()),
		})
		for _, repo := range reg.Repos {
			checks = append(checks, checkRepo(cmd, repo)...)
		}
	}

	failed := 0
	for _, c := range checks {
		if c.Status == checkFail {
			failed++
		}
	}

	if printer.IsJSON() {
		if err := printer.WriteJSON(map[string]any{"checks": checks, "failed": failed}); err != nil {
			return err
		}
	} else {
		for _, c := range checks {
			printCheck(printer, c)
		}
	}

	if failed > 0 {
		return output.NewSystemError(fmt.Sprintf("%d check(s) failed", failed))
	}
	return nil
}

// checkGit verifies the git binary is invocable.
func checkGit() checkResult {
	if !git.Available() {
		return checkResult{
			Name:    "git",
			Status:  checkFail,
			Message: "git not found in PATH",
		}
	}
	return checkResult{Name: "git", Status: checkPass, Message: "git available"}
}

// checkRepo verifies one configured repository and its vault.
func checkRepo(cmd *cobra.Command, repo *config.Repo) []checkResult {
	var checks []checkResult

	if _, err := git.Open(cmd.Context(), repo.RepoPath); err != nil {
		checks = append(checks, checkResult{
			Name:    repo.ID + "/repo",
			Status:  checkFail,
			Message: err.Error(),
		})
	} else {
		checks = append(checks, checkResult{
			Name:    repo.ID + "/repo",
			Status:  checkPass,
			Message: repo.RepoPath,
		})
	}

	if _, err := os.Stat(repo.VaultPath); err != nil {
		checks = append(checks, checkResult{
			Name:    repo.ID + "/vault",
			Status:  checkWarn,
			Message: "vault missing (created on first sync): " + repo.VaultPath,
		})
		return checks
	}
	checks = append(checks, checkResult{
		Name:    repo.ID + "/vault",
		Status:  checkPass,
		Message: repo.VaultPath,
	})

	if _, err := syncstate.Load(vault.New(repo.VaultPath)); err != nil {
		checks = append(checks, checkResult{
			Name:    repo.ID + "/state",
			Status:  checkFail,
			Message: err.Error(),
		})
	} else {
		checks = append(checks, checkResult{
			Name:    repo.ID + "/state",
			Status:  checkPass,
			Message: "sync state loads cleanly",
		})
	}

	return checks
}

// printCheck renders one check result for humans.
func printCheck(printer *output.Printer, c checkResult) {
	mark := "✔"
	switch c.Status {
	case checkWarn:
		mark = "!"
	case checkFail:
		mark = "✖"
	}
	printer.Println(fmt.Sprintf("  %s %s: %s", mark, c.Name, c.Message))
}
