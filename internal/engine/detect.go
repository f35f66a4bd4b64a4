package engine

import "github.com/gorewood/sidecar/internal/syncstate"

// classification says what a sync run must do with one commit's note.
type classification int

const (
	// classUnchanged: note exists with matching fingerprint; skip entirely.
	classUnchanged classification = iota
	// classNew: commit has never been exported; render and write.
	classNew
	// classChanged: stored fingerprint differs from the freshly rendered one
	// (template edits, diff capture toggled); rewrite.
	classChanged
)

// String returns the classification name.
func (c classification) String() string {
	switch c {
	case classNew:
		return "new"
	case classChanged:
		return "changed"
	default:
		return "unchanged"
	}
}

// classify compares a commit's freshly rendered fingerprint against the
// branch's sync state. The decision is idempotent: the same inputs always
// yield the same classification.
func classify(b *syncstate.Branch, id, fingerprint string) classification {
	stored, ok := b.Fingerprint(id)
	if !ok {
		return classNew
	}
	if stored != fingerprint {
		return classChanged
	}
	return classUnchanged
}
