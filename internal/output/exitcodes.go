// Package output provides structured output and error handling for the sidecar CLI.
package output

import "errors"

// Exit codes:
// 0 = Success
// 1 = User error (bad config, malformed template, unknown repo id)
// 2 = System error (git failed, filesystem write failed)
// 3 = Conflict (corrupt sync state, vault already locked)
const (
	ExitSuccess     = 0
	ExitUserError   = 1
	ExitSystemError = 2
	ExitConflict    = 3
)

// Kind names the failure category an error belongs to. Kinds map onto exit
// codes at the CLI boundary and onto the per-repo failure summary when
// syncing multiple repositories.
type Kind string

const (
	// KindConfig covers malformed or missing configuration.
	KindConfig Kind = "config"
	// KindSource covers failures invoking the commit source (git missing,
	// repository path invalid, plumbing command failed).
	KindSource Kind = "source"
	// KindState covers an unreadable or malformed sync state store.
	KindState Kind = "state"
	// KindTemplate covers malformed template overrides.
	KindTemplate Kind = "template"
	// KindWrite covers filesystem permission or capacity failures.
	KindWrite Kind = "write"
)

// ExitError is an error that carries an exit code and failure kind for the CLI.
type ExitError struct {
	Code    int
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/errors.As support.
func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewUserError creates an error for user-caused issues (exit code 1).
func NewUserError(message string) *ExitError {
	return &ExitError{Code: ExitUserError, Message: message}
}

// NewSystemError creates an error for system failures (exit code 2).
func NewSystemError(message string) *ExitError {
	return &ExitError{Code: ExitSystemError, Message: message}
}

// NewConfigError creates a configuration error (exit code 1).
// Fatal for the affected repository, non-fatal across a batch.
func NewConfigError(message string, cause error) *ExitError {
	return &ExitError{Code: ExitUserError, Kind: KindConfig, Message: message, Cause: cause}
}

// NewSourceError creates a commit-source invocation error (exit code 2).
func NewSourceError(message string, cause error) *ExitError {
	return &ExitError{Code: ExitSystemError, Kind: KindSource, Message: message, Cause: cause}
}

// NewStateError creates a sync-state corruption error (exit code 3).
// Corrupt state is never silently replaced with an empty default; the caller
// must surface this so a real problem is not masked by a full rewrite.
func NewStateError(message string, cause error) *ExitError {
	return &ExitError{Code: ExitConflict, Kind: KindState, Message: message, Cause: cause}
}

// NewTemplateError creates a template error (exit code 1).
func NewTemplateError(message string, cause error) *ExitError {
	return &ExitError{Code: ExitUserError, Kind: KindTemplate, Message: message, Cause: cause}
}

// NewWriteError creates a filesystem write error (exit code 2).
func NewWriteError(message string, cause error) *ExitError {
	return &ExitError{Code: ExitSystemError, Kind: KindWrite, Message: message, Cause: cause}
}

// NewConflictError creates an error for conflict situations (exit code 3).
func NewConflictError(message string) *ExitError {
	return &ExitError{Code: ExitConflict, Message: message}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil, ExitUserError for non-ExitError errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return ExitUserError
}

// GetKind extracts the failure kind from an error, or "" if untyped.
func GetKind(err error) Kind {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Kind
	}
	return ""
}
