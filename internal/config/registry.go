package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gorewood/sidecar/internal/output"
)

// Version is the registry schema version.
const Version = 1

// Options controls what a repository's sync captures.
type Options struct {
	IncludeMerges     bool `yaml:"includeMerges"`
	IncludeDiff       bool `yaml:"includeDiff"`
	IncludeDiffstat   bool `yaml:"includeDiffstat"`
	SkipBinaryDiff    bool `yaml:"skipBinaryDiff"`
	MaxInitialCommits int  `yaml:"maxInitialCommits,omitempty"` // 0 = unbounded first sync
}

// DefaultOptions returns the options applied to newly added repositories.
func DefaultOptions() Options {
	return Options{
		IncludeDiffstat: true,
		SkipBinaryDiff:  true,
	}
}

// Repo describes one configured repository → vault pairing.
type Repo struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	RepoPath  string    `yaml:"repoPath"`
	VaultPath string    `yaml:"vaultPath"`
	Branches  []string  `yaml:"branches"` // empty = all local branches
	Options   Options   `yaml:"options"`
	CreatedAt time.Time `yaml:"createdAt"`
	UpdatedAt time.Time `yaml:"updatedAt"`
}

// Registry is the root of the persisted configuration.
type Registry struct {
	Version int     `yaml:"version"`
	Repos   []*Repo `yaml:"repos"`
}

// Load reads the registry from the configuration directory.
// A missing file yields an empty registry; a malformed one is a config error.
func Load() (*Registry, error) {
	path := Path()
	if path == "" {
		return nil, output.NewConfigError("cannot resolve configuration directory", nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Registry{Version: Version}, nil
		}
		return nil, output.NewConfigError("failed to read config: "+path, err)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, output.NewConfigError("invalid YAML in config: "+path, err)
	}
	if reg.Version == 0 {
		reg.Version = Version
	}
	return &reg, nil
}

// Save writes the registry atomically to the configuration directory.
func Save(reg *Registry) error {
	path := Path()
	if path == "" {
		return output.NewConfigError("cannot resolve configuration directory", nil)
	}

	data, err := yaml.Marshal(reg)
	if err != nil {
		return output.NewConfigError("failed to serialize config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return output.NewWriteError("failed to create config directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.yaml")
	if err != nil {
		return output.NewWriteError("failed to create temp config file", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return output.NewWriteError("failed to write config", err)
	}
	if err := tmp.Close(); err != nil {
		return output.NewWriteError("failed to close temp config file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return output.NewWriteError("failed to replace config", err)
	}
	return nil
}

// Find returns the repo with the given id, or nil if absent.
func (r *Registry) Find(id string) *Repo {
	for _, repo := range r.Repos {
		if repo.ID == id {
			return repo
		}
	}
	return nil
}

// Add appends a repo, disambiguating its id with a timestamp suffix on collision.
func (r *Registry) Add(repo *Repo) {
	if r.Find(repo.ID) != nil {
		repo.ID = fmt.Sprintf("%s-%s", repo.ID, time.Now().UTC().Format("20060102150405"))
	}
	r.Repos = append(r.Repos, repo)
}

// Remove drops the repo with the given id.
// Returns false if no repo matched. Vault files are never touched.
func (r *Registry) Remove(id string) bool {
	for i, repo := range r.Repos {
		if repo.ID == id {
			r.Repos = append(r.Repos[:i], r.Repos[i+1:]...)
			return true
		}
	}
	return false
}

// Slugify converts a display name into a registry id.
// Alphanumerics are kept lowercase; spaces, dots, dashes and underscores
// collapse to single dashes.
func Slugify(name string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(name) {
		switch {
		case ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch == ' ' || ch == '_' || ch == '-' || ch == '.':
			b.WriteRune('-')
		}
	}
	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "repo"
	}
	return slug
}
