// Package render turns commit records into deterministic note content.
//
// Templates are plain text with a fixed placeholder vocabulary. A placeholder
// is written {{name}} for the raw field value or {{name.yaml}} for the
// YAML-escaped form safe inside note frontmatter. One conditional form,
// {{#if name}}...{{/if}}, includes its body only when the named field is
// non-empty; otherwise the whole region, delimiters included, is omitted.
// Tokens outside the vocabulary are left verbatim.
package render

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field names a placeholder in the template vocabulary.
type Field string

// The closed placeholder vocabulary. Commit-note templates use the commit
// fields; index templates use Branch, Repo, Head and Commits.
const (
	FieldTitle    Field = "title"
	FieldID       Field = "id"
	FieldShortID  Field = "short"
	FieldAuthor   Field = "author"
	FieldEmail    Field = "email"
	FieldDate     Field = "date"
	FieldRepo     Field = "repo"
	FieldBranch   Field = "branch"
	FieldParents  Field = "parents"
	FieldBody     Field = "body"
	FieldDiffstat Field = "diffstat"
	FieldDiff     Field = "diff"
	FieldHead     Field = "head"
	FieldCommits  Field = "commits"
)

// Fields lists every recognized placeholder.
var Fields = []Field{
	FieldTitle, FieldID, FieldShortID, FieldAuthor, FieldEmail, FieldDate,
	FieldRepo, FieldBranch, FieldParents, FieldBody, FieldDiffstat, FieldDiff,
	FieldHead, FieldCommits,
}

// Context maps placeholder fields to their values for one rendering.
type Context map[Field]string

// CommitNote carries the fields of one commit note rendering.
type CommitNote struct {
	Title    string
	ID       string
	ShortID  string
	Author   string
	Email    string
	Date     string
	Repo     string
	Branch   string
	Parents  []string // full parent identifiers, in recorded order
	Body     string
	Diffstat string
	Diff     string
}

// CommitContext builds the rendering context for a commit note.
func CommitContext(n CommitNote) Context {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		title = "Untitled"
	}
	body := strings.TrimRight(n.Body, "\n")
	if body == "" {
		body = "(no message)"
	}
	diffstat := strings.TrimSpace(n.Diffstat)
	if diffstat == "" {
		diffstat = "(none)"
	}

	return Context{
		FieldTitle:    title,
		FieldID:       n.ID,
		FieldShortID:  n.ShortID,
		FieldAuthor:   n.Author,
		FieldEmail:    n.Email,
		FieldDate:     n.Date,
		FieldRepo:     n.Repo,
		FieldBranch:   n.Branch,
		FieldParents:  ParentLinks(n.Parents),
		FieldBody:     body,
		FieldDiffstat: diffstat,
		FieldDiff:     strings.TrimSpace(n.Diff),
	}
}

// IndexContext builds the rendering context for a branch index note.
// Entries must be ordered newest first; head is the newest identifier
// (empty when the branch has no exported commits yet).
func IndexContext(repo, branch string, entries []string) Context {
	head := ""
	if len(entries) > 0 {
		head = entries[0]
	}

	var links strings.Builder
	for i, id := range entries {
		if i > 0 {
			links.WriteByte('\n')
		}
		fmt.Fprintf(&links, "- [[%s|%s]]", id, shorten(id))
	}
	commits := links.String()
	if commits == "" {
		commits = "(no commits)"
	}

	return Context{
		FieldTitle:   "Branch Index: " + branch,
		FieldRepo:    repo,
		FieldBranch:  branch,
		FieldHead:    head,
		FieldCommits: commits,
	}
}

// ParentLinks renders an ordered cross-reference link list for a commit's
// parents, one per line. Zero parents renders an explicit marker rather than
// an empty string.
func ParentLinks(parents []string) string {
	if len(parents) == 0 {
		return "*(root commit)*"
	}
	links := make([]string, len(parents))
	for i, p := range parents {
		links[i] = fmt.Sprintf("- [[%s|%s]]", p, shorten(p))
	}
	return strings.Join(links, "\n")
}

// shorten returns the abbreviated display form of an identifier.
func shorten(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

// yamlQuote escapes a value for use inside note frontmatter. A JSON string
// literal is a valid YAML double-quoted scalar, so the escaping round-trips:
// parsing the emitted scalar with a YAML reader reconstructs the original
// string exactly.
func yamlQuote(value string) string {
	out, err := json.Marshal(value)
	if err != nil {
		// Marshaling a string cannot fail; keep a safe fallback anyway.
		return fmt.Sprintf("%q", value)
	}
	return string(out)
}
