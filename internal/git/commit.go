package git

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gorewood/sidecar/internal/output"
)

// Commit represents a git commit with its metadata.
// It is immutable once read from the repository.
type Commit struct {
	ID      string    // Full 40-character SHA
	ShortID string    // Abbreviated SHA (typically 7 chars)
	Parents []string  // Full parent SHAs in recorded order; empty for a root commit
	Subject string    // First line of commit message
	Body    string    // Full commit message
	Author  string    // Author name
	Email   string    // Author email
	Date    time.Time // Author date (UTC)
}

// Log output uses the ASCII unit/record separators so multi-line commit
// bodies parse unambiguously.
const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// logFormat matches the field order expected by parseCommits.
var logFormat = strings.Join([]string{
	"%H",  // full SHA
	"%h",  // short SHA
	"%P",  // parent SHAs, space separated
	"%an", // author name
	"%ae", // author email
	"%at", // author date, unix timestamp
	"%s",  // subject
	"%B",  // raw body
}, fieldSep) + recordSep

// Commits enumerates commits on a branch, newest first.
//
// A non-empty since bounds the query to commits after since (exclusive),
// the incremental window. An empty since enumerates the branch's entire
// history. limit > 0 caps the result to the newest limit commits; merge
// commits are excluded unless includeMerges is set.
func (r *Repo) Commits(ctx context.Context, branch, since string, limit int, includeMerges bool) ([]Commit, error) {
	args := []string{"log", "--pretty=format:" + logFormat}
	if !includeMerges {
		args = append(args, "--no-merges")
	}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	if since = strings.TrimSpace(since); since != "" {
		args = append(args, since+".."+branch)
	} else {
		args = append(args, branch)
	}

	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, output.NewSourceError("failed to enumerate commits on "+branch, err)
	}
	return parseCommits(out)
}

// parseCommits parses separator-delimited git log output into Commit records.
func parseCommits(out string) ([]Commit, error) {
	if out == "" {
		return nil, nil
	}

	var commits []Commit
	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}

		fields := strings.Split(record, fieldSep)
		if len(fields) < 8 {
			return nil, output.NewSourceError("malformed git log record", nil)
		}

		timestamp, err := strconv.ParseInt(strings.TrimSpace(fields[5]), 10, 64)
		if err != nil {
			return nil, output.NewSourceError("malformed commit timestamp: "+fields[5], err)
		}

		commits = append(commits, Commit{
			ID:      fields[0],
			ShortID: fields[1],
			Parents: strings.Fields(fields[2]),
			Author:  fields[3],
			Email:   fields[4],
			Date:    time.Unix(timestamp, 0).UTC(),
			Subject: strings.TrimSpace(fields[6]),
			Body:    strings.TrimRight(fields[7], "\n"),
		})
	}

	return commits, nil
}

// Diffstat returns the change statistics text for a single commit.
func (r *Repo) Diffstat(ctx context.Context, id string) (string, error) {
	out, err := r.run(ctx, "show", "--no-color", "--stat", "--format=", id)
	if err != nil {
		return "", output.NewSourceError("failed to get diffstat for "+id, err)
	}
	return strings.TrimSpace(out), nil
}

// Diff returns the full diff text for a single commit.
// With skipBinary set, textconv filters are disabled so binary payloads are
// not expanded into the note.
func (r *Repo) Diff(ctx context.Context, id string, skipBinary bool) (string, error) {
	args := []string{"show", "--no-color", "--format=", id}
	if skipBinary {
		args = []string{"show", "--no-textconv", "--no-color", "--format=", id}
	}
	out, err := r.run(ctx, args...)
	if err != nil {
		return "", output.NewSourceError("failed to get diff for "+id, err)
	}
	return strings.TrimSpace(out), nil
}
