package syncstate

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/gorewood/sidecar/internal/output"
	"github.com/gorewood/sidecar/internal/vault"
)

func TestLoadMissingFileYieldsEmptyStore(t *testing.T) {
	v := vault.New(t.TempDir())

	store, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(store.Branches) != 0 {
		t.Errorf("Branches = %v, want empty", store.Branches)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	v := vault.New(t.TempDir())
	if err := os.MkdirAll(filepath.Dir(v.StatePath()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(v.StatePath(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(v)
	if err == nil {
		t.Fatal("Load() expected error for corrupt state")
	}
	if output.GetKind(err) != output.KindState {
		t.Errorf("error kind = %v, want %v", output.GetKind(err), output.KindState)
	}
	if output.GetExitCode(err) != output.ExitConflict {
		t.Errorf("exit code = %d, want %d", output.GetExitCode(err), output.ExitConflict)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	v := vault.New(t.TempDir())

	store := &Store{Branches: map[string]*Branch{}}
	b := store.Branch("main")
	b.LastSynced = "cccc3333"
	b.Record("aaaa1111", "fp-a")
	b.Record("bbbb2222", "fp-b")
	b.SetOrder([]string{"cccc3333", "bbbb2222", "aaaa1111"})
	b.IndexFingerprint = "fp-index"
	b.RenderFingerprint = "fp-render"

	if err := Save(v, store); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	lb := loaded.Branch("main")
	if lb.LastSynced != "cccc3333" {
		t.Errorf("LastSynced = %q", lb.LastSynced)
	}
	if fp, ok := lb.Fingerprint("aaaa1111"); !ok || fp != "fp-a" {
		t.Errorf("Fingerprint(aaaa1111) = %q, %v", fp, ok)
	}
	if !slices.Equal(lb.Order, []string{"cccc3333", "bbbb2222", "aaaa1111"}) {
		t.Errorf("Order = %v", lb.Order)
	}
	if lb.IndexFingerprint != "fp-index" {
		t.Errorf("IndexFingerprint = %q", lb.IndexFingerprint)
	}
	if lb.RenderFingerprint != "fp-render" {
		t.Errorf("RenderFingerprint = %q", lb.RenderFingerprint)
	}
}

func TestLoadNormalizesNilMaps(t *testing.T) {
	v := vault.New(t.TempDir())
	if err := os.MkdirAll(filepath.Dir(v.StatePath()), 0o755); err != nil {
		t.Fatal(err)
	}
	raw := `{"branches": {"main": {"lastSynced": "abc"}}}`
	if err := os.WriteFile(v.StatePath(), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	b := store.Branch("main")
	if b.Notes == nil {
		t.Fatal("Notes not normalized to empty map")
	}
	b.Record("abc", "fp")
	if fp, ok := b.Fingerprint("abc"); !ok || fp != "fp" {
		t.Errorf("Record after normalization failed: %q, %v", fp, ok)
	}
}

func TestBranchCreateOnUse(t *testing.T) {
	store := &Store{Branches: map[string]*Branch{}}

	if got := store.LastSynced("main"); got != "" {
		t.Errorf("LastSynced() = %q for unknown branch", got)
	}

	b := store.Branch("main")
	if b == nil || b.Notes == nil {
		t.Fatal("Branch() did not initialize record")
	}
	if store.Branch("main") != b {
		t.Error("Branch() did not return the same record on reuse")
	}
}

func TestMergeOrder(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		incoming []string
		want     []string
	}{
		{
			name:     "prepend new commits",
			existing: []string{"b", "a"},
			incoming: []string{"d", "c"},
			want:     []string{"d", "c", "b", "a"},
		},
		{
			name:     "skip already present",
			existing: []string{"b", "a"},
			incoming: []string{"c", "b"},
			want:     []string{"c", "b", "a"},
		},
		{
			name:     "empty incoming",
			existing: []string{"a"},
			incoming: nil,
			want:     []string{"a"},
		},
		{
			name:     "first sync",
			existing: nil,
			incoming: []string{"b", "a"},
			want:     []string{"b", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Branch{Notes: map[string]string{}, Order: tt.existing}
			b.MergeOrder(tt.incoming)
			if !slices.Equal(b.Order, tt.want) {
				t.Errorf("Order = %v, want %v", b.Order, tt.want)
			}
		})
	}
}

func TestSetOrderReplacesAndClones(t *testing.T) {
	b := &Branch{Notes: map[string]string{}, Order: []string{"old"}}

	src := []string{"c", "b", "a"}
	b.SetOrder(src)
	src[0] = "mutated"

	if !slices.Equal(b.Order, []string{"c", "b", "a"}) {
		t.Errorf("Order = %v, want clone of original input", b.Order)
	}
}
