package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorewood/sidecar/internal/config"
	"github.com/gorewood/sidecar/internal/git"
	"github.com/gorewood/sidecar/internal/syncstate"
	"github.com/gorewood/sidecar/internal/vault"
)

// fakeSource serves scripted commit histories, newest first per branch.
type fakeSource struct {
	histories map[string][]git.Commit
	diffstats map[string]string
	diffs     map[string]string

	diffErr error
}

func (f *fakeSource) Branches(_ context.Context) ([]string, error) {
	var names []string
	for name := range f.histories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

func (f *fakeSource) Commits(_ context.Context, branch, since string, limit int, includeMerges bool) ([]git.Commit, error) {
	history, ok := f.histories[branch]
	if !ok {
		return nil, errors.New("unknown branch: " + branch)
	}

	var out []git.Commit
	for _, c := range history {
		if since != "" && c.ID == since {
			break
		}
		if !includeMerges && len(c.Parents) > 1 {
			continue
		}
		out = append(out, c)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSource) IsReachable(_ context.Context, branch, id string) (bool, error) {
	for _, c := range f.histories[branch] {
		if c.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSource) Diffstat(_ context.Context, id string) (string, error) {
	if f.diffErr != nil {
		return "", f.diffErr
	}
	return f.diffstats[id], nil
}

func (f *fakeSource) Diff(_ context.Context, id string, _ bool) (string, error) {
	if f.diffErr != nil {
		return "", f.diffErr
	}
	return f.diffs[id], nil
}

// commitAt builds a scripted commit with a stable timestamp per sequence
// number so rendered content is deterministic across runs.
func commitAt(n int, parents ...string) git.Commit {
	id := fmt.Sprintf("%040d", n)
	return git.Commit{
		ID:      id,
		ShortID: id[:7],
		Parents: parents,
		Subject: fmt.Sprintf("commit %d", n),
		Body:    fmt.Sprintf("commit %d\n\ndetails for %d", n, n),
		Author:  "Test User",
		Email:   "test@example.com",
		Date:    time.Date(2026, 1, 1, 0, 0, n, 0, time.UTC),
	}
}

// linearHistory builds n commits on one branch, newest first, each the
// child of the previous one.
func linearHistory(n int) []git.Commit {
	commits := make([]git.Commit, 0, n)
	for i := n; i >= 1; i-- {
		if i == 1 {
			commits = append(commits, commitAt(1))
		} else {
			commits = append(commits, commitAt(i, commitAt(i-1).ID))
		}
	}
	return commits
}

// countingWriter wraps the real atomic writer and counts filesystem writes.
type countingWriter struct {
	writes int
	failOn string // substring of path that triggers a failure
}

func (w *countingWriter) write(path string, content []byte) error {
	if w.failOn != "" && strings.Contains(path, w.failOn) {
		return errors.New("injected write failure")
	}
	w.writes++
	return vault.WriteAtomic(path, content)
}

func newTestEngine(t *testing.T, source *fakeSource, opts config.Options) (*Engine, *vault.Vault, *countingWriter) {
	t.Helper()
	v := vault.New(t.TempDir())
	store := &syncstate.Store{Branches: map[string]*syncstate.Branch{}}

	eng, err := New(source, v, store, "testrepo", opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	writer := &countingWriter{}
	eng.SetWriteFunc(writer.write)
	return eng, v, writer
}

func TestSyncBranchFirstRun(t *testing.T) {
	source := &fakeSource{histories: map[string][]git.Commit{"main": linearHistory(3)}}
	eng, v, writer := newTestEngine(t, source, config.Options{})
	ctx := context.Background()

	result, err := eng.SyncBranch(ctx, "main")
	if err != nil {
		t.Fatalf("SyncBranch() error = %v", err)
	}

	if result.Mode != Incremental {
		t.Errorf("Mode = %v, want %v", result.Mode, Incremental)
	}
	if result.Written != 3 || result.Rewritten != 0 || result.Skipped != 0 {
		t.Errorf("counts = %d/%d/%d, want 3/0/0", result.Written, result.Rewritten, result.Skipped)
	}
	if !result.IndexWritten {
		t.Error("index not written on first sync")
	}
	if result.Tip != commitAt(3).ID {
		t.Errorf("Tip = %q, want newest commit", result.Tip)
	}
	if writer.writes != 4 {
		t.Errorf("filesystem writes = %d, want 4 (3 notes + index)", writer.writes)
	}

	for i := 1; i <= 3; i++ {
		path := v.NotePath("main", commitAt(i).ID)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("note %d missing: %v", i, err)
		}
	}
	if _, err := os.Stat(v.IndexPath("main")); err != nil {
		t.Errorf("index missing: %v", err)
	}
}

func TestSyncBranchSecondRunWritesNothing(t *testing.T) {
	source := &fakeSource{histories: map[string][]git.Commit{"main": linearHistory(3)}}
	eng, _, writer := newTestEngine(t, source, config.Options{})
	ctx := context.Background()

	if _, err := eng.SyncBranch(ctx, "main"); err != nil {
		t.Fatal(err)
	}
	writer.writes = 0

	result, err := eng.SyncBranch(ctx, "main")
	if err != nil {
		t.Fatalf("SyncBranch() error = %v", err)
	}
	if writer.writes != 0 {
		t.Errorf("filesystem writes on second run = %d, want 0", writer.writes)
	}
	if result.Written != 0 || result.Rewritten != 0 || result.Skipped != 0 {
		t.Errorf("counts = %d/%d/%d, want 0/0/0 (empty incremental window)",
			result.Written, result.Rewritten, result.Skipped)
	}
	if result.IndexWritten {
		t.Error("index rewritten despite unchanged membership")
	}
}

func TestSyncBranchIncremental(t *testing.T) {
	source := &fakeSource{histories: map[string][]git.Commit{"main": linearHistory(2)}}
	eng, _, writer := newTestEngine(t, source, config.Options{})
	ctx := context.Background()

	if _, err := eng.SyncBranch(ctx, "main"); err != nil {
		t.Fatal(err)
	}

	// Two new commits arrive on the branch.
	source.histories["main"] = linearHistory(4)
	writer.writes = 0

	result, err := eng.SyncBranch(ctx, "main")
	if err != nil {
		t.Fatalf("SyncBranch() error = %v", err)
	}
	if result.Written != 2 {
		t.Errorf("Written = %d, want 2", result.Written)
	}
	if result.Mode != Incremental {
		t.Errorf("Mode = %v, want %v", result.Mode, Incremental)
	}
	if writer.writes != 3 {
		t.Errorf("filesystem writes = %d, want 3 (2 notes + index)", writer.writes)
	}
	if result.Tip != commitAt(4).ID {
		t.Errorf("Tip = %q", result.Tip)
	}

	order := eng.Store().Branch("main").Order
	want := []string{commitAt(4).ID, commitAt(3).ID, commitAt(2).ID, commitAt(1).ID}
	if !slices.Equal(order, want) {
		t.Errorf("Order = %v, want %v", order, want)
	}
}

func TestSyncBranchRebaseFallsBackToFullScan(t *testing.T) {
	source := &fakeSource{histories: map[string][]git.Commit{"main": linearHistory(3)}}
	eng, v, writer := newTestEngine(t, source, config.Options{})
	ctx := context.Background()

	if _, err := eng.SyncBranch(ctx, "main"); err != nil {
		t.Fatal(err)
	}

	// Rewrite history: commits 2 and 3 replaced by 12 and 13; the old tip
	// is no longer reachable.
	rewritten := []git.Commit{
		commitAt(13, commitAt(12).ID),
		commitAt(12, commitAt(1).ID),
		commitAt(1),
	}
	source.histories["main"] = rewritten
	writer.writes = 0

	result, err := eng.SyncBranch(ctx, "main")
	if err != nil {
		t.Fatalf("SyncBranch() error = %v", err)
	}
	if result.Mode != FullScan {
		t.Errorf("Mode = %v, want %v", result.Mode, FullScan)
	}
	if result.Written != 2 {
		t.Errorf("Written = %d, want 2 (replacement commits only)", result.Written)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1 (unchanged root note)", result.Skipped)
	}

	// The index lists only reachable history; orphaned notes stay on disk.
	order := eng.Store().Branch("main").Order
	want := []string{commitAt(13).ID, commitAt(12).ID, commitAt(1).ID}
	if !slices.Equal(order, want) {
		t.Errorf("Order = %v, want %v", order, want)
	}
	if _, err := os.Stat(v.NotePath("main", commitAt(3).ID)); err != nil {
		t.Errorf("orphaned note removed: %v", err)
	}
	if !result.IndexWritten {
		t.Error("index not rewritten after membership change")
	}
}

func TestSyncBranchDiffToggleRewrites(t *testing.T) {
	diffID := commitAt(2).ID
	source := &fakeSource{
		histories: map[string][]git.Commit{"main": linearHistory(2)},
		diffs: map[string]string{
			diffID:         "diff --git a/f b/f\n+two",
			commitAt(1).ID: "diff --git a/f b/f\n+one",
		},
	}
	eng, v, writer := newTestEngine(t, source, config.Options{})
	ctx := context.Background()

	if _, err := eng.SyncBranch(ctx, "main"); err != nil {
		t.Fatal(err)
	}

	// Same history, new options: the render key mismatch re-enumerates the
	// whole branch even though the tip has not moved, and every note is
	// rewritten with the diff included. Membership is unchanged, so the
	// index stays put.
	eng.opts.IncludeDiff = true
	writer.writes = 0

	result, err := eng.SyncBranch(ctx, "main")
	if err != nil {
		t.Fatalf("SyncBranch() error = %v", err)
	}
	if result.Mode != FullScan {
		t.Errorf("Mode = %v, want %v after option change", result.Mode, FullScan)
	}
	if result.Written != 0 || result.Rewritten != 2 {
		t.Errorf("Written/Rewritten = %d/%d, want 0/2", result.Written, result.Rewritten)
	}
	if result.IndexWritten {
		t.Error("index rewritten despite unchanged membership")
	}
	if writer.writes != 2 {
		t.Errorf("filesystem writes = %d, want 2 (rewritten notes only)", writer.writes)
	}
	data, err := os.ReadFile(v.NotePath("main", diffID))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "+two") {
		t.Error("rewritten note missing diff content")
	}

	// Re-running with the same options settles back to a no-op.
	writer.writes = 0
	result, err = eng.SyncBranch(ctx, "main")
	if err != nil {
		t.Fatalf("SyncBranch() error = %v", err)
	}
	if result.Mode != Incremental || writer.writes != 0 {
		t.Errorf("Mode = %v, writes = %d, want %v and 0", result.Mode, writer.writes, Incremental)
	}
}

func TestSyncBranchTemplateEditRewrites(t *testing.T) {
	source := &fakeSource{histories: map[string][]git.Commit{"main": linearHistory(2)}}
	v := vault.New(t.TempDir())
	store := &syncstate.Store{Branches: map[string]*syncstate.Branch{}}
	ctx := context.Background()

	eng, err := New(source, v, store, "testrepo", config.Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := eng.SyncBranch(ctx, "main"); err != nil {
		t.Fatal(err)
	}

	// An override appearing between runs changes the rendered content of
	// every note; templates are resolved per engine, so a fresh one sees it.
	if err := vault.EnsureDir(v.TemplatesDir()); err != nil {
		t.Fatal(err)
	}
	override := "EDITED {{title}}\n"
	if err := os.WriteFile(v.TemplatesDir()+"/commit.md", []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	eng2, err := New(source, v, store, "testrepo", config.Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	result, err := eng2.SyncBranch(ctx, "main")
	if err != nil {
		t.Fatalf("SyncBranch() error = %v", err)
	}
	if result.Mode != FullScan {
		t.Errorf("Mode = %v, want %v after template edit", result.Mode, FullScan)
	}
	if result.Rewritten != 2 {
		t.Errorf("Rewritten = %d, want 2", result.Rewritten)
	}
	data, err := os.ReadFile(v.NotePath("main", commitAt(2).ID))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "EDITED commit 2") {
		t.Errorf("note = %q, want edited template output", data)
	}
}

func TestSyncBranchFullScanEmptyEnumeration(t *testing.T) {
	// A history of merge commits only, with merges excluded, enumerates to
	// nothing. After a rebase the stale sync point must not survive such a
	// run, or every later sync would re-enter a full scan.
	merge := commitAt(2, commitAt(1).ID, commitAt(9).ID)
	source := &fakeSource{histories: map[string][]git.Commit{"main": {merge}}}
	eng, _, writer := newTestEngine(t, source, config.Options{})
	ctx := context.Background()

	state := eng.Store().Branch("main")
	state.LastSynced = "gone"

	result, err := eng.SyncBranch(ctx, "main")
	if err != nil {
		t.Fatalf("SyncBranch() error = %v", err)
	}
	if result.Mode != FullScan {
		t.Errorf("Mode = %v, want %v", result.Mode, FullScan)
	}
	if result.Written != 0 || result.Tip != "" {
		t.Errorf("Written = %d, Tip = %q, want 0 and empty", result.Written, result.Tip)
	}
	if state.LastSynced != "" {
		t.Errorf("LastSynced = %q, want cleared after empty full scan", state.LastSynced)
	}

	writer.writes = 0
	result, err = eng.SyncBranch(ctx, "main")
	if err != nil {
		t.Fatalf("SyncBranch() error = %v", err)
	}
	if result.Mode != Incremental {
		t.Errorf("Mode = %v, want %v on the following run", result.Mode, Incremental)
	}
	if writer.writes != 0 {
		t.Errorf("filesystem writes = %d, want 0", writer.writes)
	}
}

func TestSyncBranchWriteFailureNotRecorded(t *testing.T) {
	source := &fakeSource{histories: map[string][]git.Commit{"main": linearHistory(1)}}
	eng, _, writer := newTestEngine(t, source, config.Options{})
	writer.failOn = commitAt(1).ID
	ctx := context.Background()

	if _, err := eng.SyncBranch(ctx, "main"); err == nil {
		t.Fatal("SyncBranch() expected injected write failure")
	}

	state := eng.Store().Branch("main")
	if _, ok := state.Fingerprint(commitAt(1).ID); ok {
		t.Error("fingerprint recorded despite failed write")
	}
	if state.LastSynced != "" {
		t.Errorf("LastSynced = %q, want empty after failed run", state.LastSynced)
	}

	// The next run retries cleanly.
	writer.failOn = ""
	result, err := eng.SyncBranch(ctx, "main")
	if err != nil {
		t.Fatalf("SyncBranch() retry error = %v", err)
	}
	if result.Written != 1 {
		t.Errorf("Written = %d, want 1", result.Written)
	}
}

func TestSyncBranchMaxInitialCommits(t *testing.T) {
	source := &fakeSource{histories: map[string][]git.Commit{"main": linearHistory(5)}}
	eng, _, _ := newTestEngine(t, source, config.Options{MaxInitialCommits: 2})
	ctx := context.Background()

	result, err := eng.SyncBranch(ctx, "main")
	if err != nil {
		t.Fatalf("SyncBranch() error = %v", err)
	}
	if result.Written != 2 {
		t.Errorf("Written = %d, want 2 (bounded first sync)", result.Written)
	}
	if result.Tip != commitAt(5).ID {
		t.Errorf("Tip = %q, want newest commit", result.Tip)
	}

	// A later full rescan ignores the bound.
	source.histories["main"] = append([]git.Commit{commitAt(6, "unrelated")}, linearHistory(5)[1:]...)
	eng.Store().Branch("main").LastSynced = "gone"

	result, err = eng.SyncBranch(ctx, "main")
	if err != nil {
		t.Fatalf("SyncBranch() rescan error = %v", err)
	}
	if result.Mode != FullScan {
		t.Errorf("Mode = %v, want %v", result.Mode, FullScan)
	}
	if got := result.Written + result.Skipped; got != 5 {
		t.Errorf("processed = %d, want full history of 5", got)
	}
}

func TestSyncBranchMergeFiltering(t *testing.T) {
	merge := commitAt(3, commitAt(2).ID, commitAt(1).ID)
	history := []git.Commit{merge, commitAt(2, commitAt(1).ID), commitAt(1)}

	source := &fakeSource{histories: map[string][]git.Commit{"main": history}}
	eng, _, _ := newTestEngine(t, source, config.Options{})
	ctx := context.Background()

	result, err := eng.SyncBranch(ctx, "main")
	if err != nil {
		t.Fatal(err)
	}
	if result.Written != 2 {
		t.Errorf("Written = %d, want 2 (merge excluded)", result.Written)
	}

	// With merges enabled, the merge commit is exported too.
	eng2, v2, _ := newTestEngine(t, source, config.Options{IncludeMerges: true})
	result, err = eng2.SyncBranch(ctx, "main")
	if err != nil {
		t.Fatal(err)
	}
	if result.Written != 3 {
		t.Errorf("Written = %d, want 3 (merge included)", result.Written)
	}
	data, err := os.ReadFile(v2.NotePath("main", merge.ID))
	if err != nil {
		t.Fatal(err)
	}
	for _, parent := range merge.Parents {
		if !strings.Contains(string(data), "[["+parent+"|") {
			t.Errorf("merge note missing parent link for %s", parent)
		}
	}
}

func TestSyncRepoBranchFailureIsIsolated(t *testing.T) {
	source := &fakeSource{histories: map[string][]git.Commit{
		"main": linearHistory(2),
	}}
	eng, _, _ := newTestEngine(t, source, config.Options{})
	ctx := context.Background()

	result, err := eng.SyncRepo(ctx, []string{"missing", "main"})
	if err != nil {
		t.Fatalf("SyncRepo() error = %v", err)
	}

	if len(result.Failures) != 1 || result.Failures[0].Branch != "missing" {
		t.Errorf("Failures = %v, want one for missing branch", result.Failures)
	}
	if len(result.Branches) != 1 || result.Branches[0].Branch != "main" {
		t.Errorf("Branches = %v, want main synced", result.Branches)
	}
	if result.Written() != 2 {
		t.Errorf("Written() = %d, want 2", result.Written())
	}
}

func TestSyncRepoDefaultsToAllBranches(t *testing.T) {
	source := &fakeSource{histories: map[string][]git.Commit{
		"develop": linearHistory(1),
		"main":    linearHistory(2),
	}}
	eng, v, _ := newTestEngine(t, source, config.Options{})
	ctx := context.Background()

	result, err := eng.SyncRepo(ctx, nil)
	if err != nil {
		t.Fatalf("SyncRepo() error = %v", err)
	}
	if len(result.Branches) != 2 {
		t.Fatalf("Branches = %v, want 2", result.Branches)
	}

	// State was checkpointed to disk.
	loaded, err := syncstate.Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.LastSynced("main") != commitAt(2).ID {
		t.Errorf("persisted LastSynced = %q", loaded.LastSynced("main"))
	}
	if loaded.LastSynced("develop") != commitAt(1).ID {
		t.Errorf("persisted LastSynced = %q", loaded.LastSynced("develop"))
	}
}

func TestClassify(t *testing.T) {
	b := &syncstate.Branch{Notes: map[string]string{"known": "fp1"}}

	tests := []struct {
		name        string
		id          string
		fingerprint string
		want        classification
	}{
		{"never exported", "new-id", "fp", classNew},
		{"matching fingerprint", "known", "fp1", classUnchanged},
		{"stale fingerprint", "known", "fp2", classChanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(b, tt.id, tt.fingerprint); got != tt.want {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTemplateOverrideChangesOutput(t *testing.T) {
	source := &fakeSource{histories: map[string][]git.Commit{"main": linearHistory(1)}}

	v := vault.New(t.TempDir())
	if err := vault.EnsureDir(v.TemplatesDir()); err != nil {
		t.Fatal(err)
	}
	override := "OVERRIDE {{title}}\n"
	if err := os.WriteFile(v.TemplatesDir()+"/commit.md", []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	store := &syncstate.Store{Branches: map[string]*syncstate.Branch{}}
	eng, err := New(source, v, store, "testrepo", config.Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := eng.SyncBranch(context.Background(), "main"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(v.NotePath("main", commitAt(1).ID))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "OVERRIDE commit 1") {
		t.Errorf("note = %q, want override template output", data)
	}
}
