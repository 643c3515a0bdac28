// Package errors provides error handling for realitycheck.
//
// It re-exports github.com/cockroachdb/errors (stack traces, wrapping,
// hints) and defines the registry error taxonomy. Inspect taxonomy errors
// with As, and sentinels with Is:
//
//	var nf *errors.NotFoundError
//	if errors.As(err, &nf) {
//	    // nf.Kind, nf.ID
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New         = crdb.New
	Newf        = crdb.Newf
	Wrap        = crdb.Wrap
	Wrapf       = crdb.Wrapf
	WithStack   = crdb.WithStack
	WithMessage = crdb.WithMessage
	Mark        = crdb.Mark
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
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinels. Wrap them with Wrap to add context while keeping Is working.
var (
	// ErrNotFound is matched by every *NotFoundError
	ErrNotFound = New("not found")

	// ErrEmbeddingUnavailable is returned by embedding providers. The
	// registry degrades it to a null embedding on writes.
	ErrEmbeddingUnavailable = New("embedding unavailable")

	// ErrIDSpaceExhausted means the three-digit sequence would overflow
	ErrIDSpaceExhausted = New("id sequence exhausted")

	// ErrUnknownTable is returned for a table name outside the four kinds
	ErrUnknownTable = New("unknown table")

	// ErrDimensionMismatch is returned when vector lengths disagree
	ErrDimensionMismatch = New("embedding dimension mismatch")

	// ErrStaleText means a record changed while its embedding was computed
	ErrStaleText = New("embedding text changed")

	// ErrConfirmationRequired guards destructive operations
	ErrConfirmationRequired = New("confirmation required")
)

// IsNotFound checks if an error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsEmbeddingUnavailable checks if an error is or wraps ErrEmbeddingUnavailable
func IsEmbeddingUnavailable(err error) bool {
	return err != nil && Is(err, ErrEmbeddingUnavailable)
}
