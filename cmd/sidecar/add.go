package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/gorewood/sidecar/internal/config"
	"github.com/gorewood/sidecar/internal/git"
	"github.com/gorewood/sidecar/internal/output"
)

// addAnswers collects the wizard (or flag) inputs for a new repository.
type addAnswers struct {
	repoPath   string
	name       string
	vaultPath  string
	branches   string
	diffstat   bool
	diff       bool
	merges     bool
	maxInitial string
}

// newAddCmd creates the add command.
func newAddCmd() *cobra.Command {
	answers := &addAnswers{diffstat: true}
	var noInput bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a repository → vault pairing",
		Long: `Register a git repository and the vault its commits export into.

Without flags, an interactive form prompts for each setting. With --repo and
--vault (and optionally the other flags), the form is skipped, which suits
scripts and agents:

  sidecar add                                      # interactive form
  sidecar add --repo ~/src/app --vault ~/notes/app # non-interactive
  sidecar add --repo . --vault ../vault --diff     # capture full diffs`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAdd(cmd, answers, noInput)
		},
	}

	cmd.Flags().StringVar(&answers.repoPath, "repo", "", "Git repository path")
	cmd.Flags().StringVar(&answers.vaultPath, "vault", "", "Vault (output) path")
	cmd.Flags().StringVar(&answers.name, "name", "", "Display name (default: repository folder name)")
	cmd.Flags().StringVar(&answers.branches, "branches", "", "Branches to sync, comma separated (default: all local branches)")
	cmd.Flags().BoolVar(&answers.diffstat, "diffstat", true, "Include diff statistics in notes")
	cmd.Flags().BoolVar(&answers.diff, "diff", false, "Include full diffs in notes")
	cmd.Flags().BoolVar(&answers.merges, "merges", false, "Include merge commits")
	cmd.Flags().StringVar(&answers.maxInitial, "max-initial", "", "Limit commits on a branch's first sync")
	cmd.Flags().BoolVar(&noInput, "no-input", false, "Fail instead of prompting when required flags are missing")

	return cmd
}

// runAdd executes the add command.
func runAdd(cmd *cobra.Command, answers *addAnswers, noInput bool) error {
	printer := newPrinter(cmd)

	reg, err := config.Load()
	if err != nil {
		printer.Error(err)
		return err
	}

	interactive := answers.repoPath == "" || answers.vaultPath == ""
	if interactive {
		if noInput || printer.IsJSON() {
			err := output.NewUserError("--repo and --vault are required without the interactive form")
			printer.Error(err)
			return err
		}
		if err := runAddForm(cmd.Context(), answers); err != nil {
			printer.Error(err)
			return err
		}
	}

	repo, err := buildRepo(cmd.Context(), answers)
	if err != nil {
		printer.Error(err)
		return err
	}

	reg.Add(repo)
	if err := config.Save(reg); err != nil {
		printer.Error(err)
		return err
	}

	return printer.Success(map[string]any{
		"message": fmt.Sprintf("Added repo %q (id=%s)", repo.Name, repo.ID),
		"id":      repo.ID,
	})
}

// runAddForm collects answers interactively.
func runAddForm(ctx context.Context, answers *addAnswers) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Repository path").
				Description("Path to an existing git repository").
				Value(&answers.repoPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("repository path is required")
					}
					if _, err := git.Open(ctx, expandPath(s)); err != nil {
						return fmt.Errorf("not a git repository")
					}
					return nil
				}),

			huh.NewInput().
				Title("Display name").
				Description("Blank uses the repository folder name").
				Value(&answers.name),

			huh.NewInput().
				Title("Vault path").
				Description("Directory the notes export into (created if missing)").
				Value(&answers.vaultPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("vault path is required")
					}
					return nil
				}),

			huh.NewInput().
				Title("Branches").
				Description("Comma separated; blank syncs all local branches").
				Value(&answers.branches),
		),

		huh.NewGroup(
			huh.NewConfirm().
				Title("Include diff statistics?").
				Value(&answers.diffstat),

			huh.NewConfirm().
				Title("Include full diffs?").
				Description("Larger notes").
				Value(&answers.diff),

			huh.NewConfirm().
				Title("Include merge commits?").
				Value(&answers.merges),

			huh.NewInput().
				Title("Limit first sync").
				Description("Max commits on a branch's first sync; blank = no limit").
				Value(&answers.maxInitial).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return nil
					}
					if n, err := strconv.Atoi(s); err != nil || n < 1 {
						return fmt.Errorf("enter a positive number or leave blank")
					}
					return nil
				}),
		),
	)

	return form.Run()
}

// buildRepo validates the collected answers and assembles the registry entry.
func buildRepo(ctx context.Context, answers *addAnswers) (*config.Repo, error) {
	repoPath := expandPath(answers.repoPath)
	if _, err := git.Open(ctx, repoPath); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(answers.name)
	if name == "" {
		name = filepath.Base(repoPath)
	}

	var branches []string
	for _, b := range strings.Split(answers.branches, ",") {
		if b = strings.TrimSpace(b); b != "" {
			branches = append(branches, b)
		}
	}

	maxInitial := 0
	if s := strings.TrimSpace(answers.maxInitial); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return nil, output.NewUserError("--max-initial must be a positive number")
		}
		maxInitial = n
	}

	now := time.Now().UTC()
	return &config.Repo{
		ID:        config.Slugify(name),
		Name:      name,
		RepoPath:  repoPath,
		VaultPath: expandPath(answers.vaultPath),
		Branches:  branches,
		Options: config.Options{
			IncludeMerges:     answers.merges,
			IncludeDiff:       answers.diff,
			IncludeDiffstat:   answers.diffstat,
			SkipBinaryDiff:    true,
			MaxInitialCommits: maxInitial,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// expandPath resolves ~ and returns an absolute, cleaned path.
func expandPath(path string) string {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
