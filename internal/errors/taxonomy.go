package errors

import (
	"fmt"
	"strings"

	"github.com/lhl/realitycheck/internal/model"
)

// ValidationError carries the structural issues that blocked a write
type ValidationError struct {
	Kind   model.Kind
	ID     string
	Issues []model.Issue
}

func (e *ValidationError) Error() string {
	var codes []string
	for _, is := range e.Issues {
		if is.IsError() {
			codes = append(codes, fmt.Sprintf("%s(%s)", is.Code, is.Field))
		}
	}
	id := e.ID
	if id == "" {
		id = "<new>"
	}
	return fmt.Sprintf("validation failed for %s %s: %s", e.Kind, id, strings.Join(codes, ", "))
}

// NotFoundError reports an unknown ID
type NotFoundError struct {
	Kind model.Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ImmutableFieldError reports an attempt to change a field outside the
// kind's mutable set
type ImmutableFieldError struct {
	Kind  model.Kind
	ID    string
	Field string
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("field %q of %s %s is immutable", e.Field, e.Kind, e.ID)
}

// InvalidDomainError reports a domain code outside the enumerated set
type InvalidDomainError struct {
	Domain string
}

func (e *InvalidDomainError) Error() string {
	return fmt.Sprintf("invalid domain %q", e.Domain)
}

// NewValidationError builds a ValidationError from the error-severity
// subset of issues, or returns nil when there are none
func NewValidationError(kind model.Kind, id string, issues []model.Issue) error {
	if !model.HasErrors(issues) {
		return nil
	}
	return WithStack(&ValidationError{Kind: kind, ID: id, Issues: issues})
}

// Exit codes exposed to the CLI layer
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitValidation  = 2
	ExitNotFound    = 3
	ExitReferential = 4
	ExitInput       = 5
)

// ErrReferential is returned by the batch validation entry point when the
// report did not pass
var ErrReferential = New("referential integrity check failed")

// ExitCode maps an error to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ve *ValidationError
	var nf *NotFoundError
	var im *ImmutableFieldError
	var id *InvalidDomainError
	switch {
	case As(err, &ve):
		return ExitValidation
	case As(err, &nf), Is(err, ErrNotFound):
		return ExitNotFound
	case Is(err, ErrReferential):
		return ExitReferential
	case As(err, &im), As(err, &id):
		return ExitInput
	}
	return ExitFailure
}
