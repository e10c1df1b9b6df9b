// Package errors provides error handling for tsapi.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints ("run :apiDump to accept the change")
//   - Error marks, so a formatted message can still match a sentinel
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "run :apiDump to update the reference")
//
//	// Check errors
//	if errors.Is(err, errors.ErrSnapshotMismatch) {
//	    // handle API drift
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark

	CombineErrors = crdb.CombineErrors
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors shared across tsapi.
// Build-breaking conditions are marked with one of these so callers can use
// errors.Is() while the message itself stays fully descriptive.
var (
	// ErrReferenceMissing indicates the checked-in reference snapshot does not exist
	ErrReferenceMissing = New("reference snapshot missing")

	// ErrSnapshotMismatch indicates the built snapshot differs from the reference
	ErrSnapshotMismatch = New("snapshot mismatch")

	// ErrBuildOutputMissing indicates the canonical snapshot was never produced
	ErrBuildOutputMissing = New("build output missing")

	// ErrTaskNotFound indicates a task name is not registered in the project
	ErrTaskNotFound = New("task not found")

	// ErrTaskExists indicates a task with the same name is already registered
	ErrTaskExists = New("task already exists")

	// ErrCycle indicates the task graph contains a dependency cycle
	ErrCycle = New("task graph cycle")

	// ErrInvalidDescriptor indicates a project descriptor could not be understood
	ErrInvalidDescriptor = New("invalid project descriptor")
)

// BuildFailure is the fatal error channel: a task that must fail the build.
// It always propagates to the caller of the executor.
type BuildFailure struct {
	Task  string
	cause error
}

// NewBuildFailure wraps cause as the failure of task.
func NewBuildFailure(task string, cause error) error {
	if cause == nil {
		return nil
	}
	return &BuildFailure{Task: task, cause: cause}
}

func (f *BuildFailure) Error() string {
	return "task '" + f.Task + "' failed: " + f.cause.Error()
}

// Unwrap exposes the underlying cause to Is/As.
func (f *BuildFailure) Unwrap() error { return f.cause }

// IsBuildFailure checks if an error is or wraps a BuildFailure
func IsBuildFailure(err error) bool {
	var f *BuildFailure
	return err != nil && As(err, &f)
}

// IsSnapshotError reports whether err is one of the snapshot gate failures
func IsSnapshotError(err error) bool {
	return err != nil && IsAny(err, ErrReferenceMissing, ErrSnapshotMismatch, ErrBuildOutputMissing)
}
