package planner

import (
	"fmt"
	"strings"
)

// ErrorKind is the closed taxonomy of request-shape errors. These are
// user-input errors surfaced verbatim to the caller; none of them is
// retryable.
type ErrorKind string

const (
	ErrActionNotFound             ErrorKind = "action_not_found"
	ErrUnknownField               ErrorKind = "unknown_field"
	ErrRequiresFieldSelection     ErrorKind = "requires_field_selection"
	ErrDuplicateField             ErrorKind = "duplicate_field"
	ErrInvalidFieldType           ErrorKind = "invalid_field_type"
	ErrInvalidFieldSelection      ErrorKind = "invalid_field_selection"
	ErrFieldDoesNotSupportNesting ErrorKind = "field_does_not_support_nesting"
	ErrCalculationRequiresArgs    ErrorKind = "calculation_requires_args"
	ErrInvalidCalculationArgs     ErrorKind = "invalid_calculation_args"
	ErrUnsupportedFieldCombo      ErrorKind = "unsupported_field_combination"
	ErrInvalidUnionFieldFormat    ErrorKind = "invalid_union_field_format"
)

// Error is the single structured error a failed Process call returns.
// Path is the dotted field path from the action root; Detail carries
// kind-specific context such as the field kind behind a
// requires_field_selection failure.
type Error struct {
	Kind   ErrorKind `json:"kind"`
	Field  string    `json:"field,omitempty"`
	Path   string    `json:"path"`
	Detail string    `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	if e.Detail != "" {
		b.WriteString(" (" + e.Detail + ")")
	}
	return b.String()
}

// path is the ordered field trail from the action root, carried only
// for diagnostics.
type path []string

func (p path) child(name string) path {
	next := make(path, len(p)+1)
	copy(next, p)
	next[len(p)] = name
	return next
}

func (p path) String() string { return strings.Join(p, ".") }

func newError(kind ErrorKind, field string, p path, detail string) *Error {
	return &Error{Kind: kind, Field: field, Path: p.child(field).String(), Detail: detail}
}

// newErrorAt builds an error whose path is the current level itself,
// without appending a field segment.
func newErrorAt(kind ErrorKind, field string, p path, detail string) *Error {
	return &Error{Kind: kind, Field: field, Path: p.String(), Detail: detail}
}
