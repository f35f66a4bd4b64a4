package vault

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPaths(t *testing.T) {
	v := New("/vault")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"state", v.StatePath(), "/vault/.sidecar/cache.json"},
		{"lock", v.LockPath(), "/vault/.sidecar/sync.lock"},
		{"templates", v.TemplatesDir(), "/vault/.sidecar/templates"},
		{"branch dir", v.BranchDir("main"), "/vault/branches/main"},
		{"nested branch dir", v.BranchDir("feature/login"), "/vault/branches/feature/login"},
		{"note", v.NotePath("main", "abc123"), "/vault/branches/main/abc123.md"},
		{"index", v.IndexPath("main"), "/vault/branches/main/index.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != filepath.FromSlash(tt.want) {
				t.Errorf("got %q, want %q", tt.got, filepath.FromSlash(tt.want))
			}
		})
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "branches", "main", "abc.md")

	if err := WriteAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteAtomic() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first" {
		t.Errorf("content = %q, want %q", data, "first")
	}

	// Overwrite replaces the full content.
	if err := WriteAtomic(path, []byte("second")); err != nil {
		t.Fatalf("WriteAtomic() overwrite error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("content after overwrite = %q, want %q", data, "second")
	}
}

func TestWriteAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")

	if err := WriteAtomic(path, []byte("content")); err != nil {
		t.Fatalf("WriteAtomic() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1", len(entries))
	}
}

func TestWriteAtomicFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	if err := WriteAtomic(path, []byte("original")); err != nil {
		t.Fatal(err)
	}

	// Turn the target into a directory so the rename cannot succeed, then
	// verify nothing about the original layout changed.
	blocked := filepath.Join(dir, "blocked")
	if err := os.MkdirAll(filepath.Join(blocked, "note.md"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := WriteAtomic(filepath.Join(blocked, "note.md"), []byte("new")); err == nil {
		t.Fatal("WriteAtomic() expected error when target is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original" {
		t.Errorf("unrelated file changed: %q", data)
	}
	entries, _ := os.ReadDir(blocked)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind after failure: %s", e.Name())
		}
	}
}

func TestEnsureDirIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir() second call error = %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory missing after EnsureDir: %v", err)
	}
}

func TestLockExcludesSecondHolder(t *testing.T) {
	v := New(t.TempDir())

	first, err := NewLock(v)
	if err != nil {
		t.Fatalf("NewLock() error = %v", err)
	}
	if err := first.Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer func() { _ = first.Release() }()

	second, err := NewLock(v)
	if err != nil {
		t.Fatalf("NewLock() error = %v", err)
	}
	if err := second.Acquire(); err == nil {
		_ = second.Release()
		t.Fatal("second Acquire() expected conflict error")
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := second.Acquire(); err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	_ = second.Release()
}
