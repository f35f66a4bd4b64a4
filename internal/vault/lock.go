package vault

import (
	"github.com/gofrs/flock"

	"github.com/gorewood/sidecar/internal/output"
)

// Lock serializes sync runs against one vault. Concurrent runs are unsafe
// (the sync state store has single-writer discipline), so a run holds the
// lock for its whole duration and competing runs fail fast instead of
// blocking.
type Lock struct {
	flock *flock.Flock
}

// NewLock creates a Lock for the vault. The lock file lives inside the
// vault's .sidecar directory, which is created if missing.
func NewLock(v *Vault) (*Lock, error) {
	if err := EnsureDir(v.SidecarDir()); err != nil {
		return nil, err
	}
	return &Lock{flock: flock.New(v.LockPath())}, nil
}

// Acquire takes the lock without blocking.
// Returns a conflict error if another sync run holds it.
func (l *Lock) Acquire() error {
	locked, err := l.flock.TryLock()
	if err != nil {
		return output.NewWriteError("failed to acquire vault lock: "+l.flock.Path(), err)
	}
	if !locked {
		return output.NewConflictError("vault is locked by another sync run: " + l.flock.Path())
	}
	return nil
}

// Release releases the lock. Safe to call multiple times.
func (l *Lock) Release() error {
	if l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}
