package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidArguments matches any *ValidationError via errors.Is.
var ErrInvalidArguments = errors.New("invalid arguments")

// ErrorKind classifies a single argument violation.
type ErrorKind string

const (
	MissingArgument ErrorKind = "missing_argument"
	TypeMismatch    ErrorKind = "type_mismatch"
	UnknownArgument ErrorKind = "unknown_argument"
)

// FieldError describes one violation on one argument.
type FieldError struct {
	Field   string    `json:"field" yaml:"field"`
	Kind    ErrorKind `json:"kind" yaml:"kind"`
	Message string    `json:"message" yaml:"message"`
}

// ValidationError collects every violation found in one argument set.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "invalid arguments: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidArguments
}

// Has reports whether the error holds a violation of kind on field.
func (e *ValidationError) Has(field string, kind ErrorKind) bool {
	for _, f := range e.Fields {
		if f.Field == field && f.Kind == kind {
			return true
		}
	}
	return false
}

// collector accumulates at most one violation per field.
type collector struct {
	seen   map[string]bool
	fields []FieldError
}

func (c *collector) add(field string, kind ErrorKind, format string, args ...interface{}) {
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	if c.seen[field] {
		return
	}
	c.seen[field] = true
	c.fields = append(c.fields, FieldError{Field: field, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	sort.Slice(c.fields, func(i, j int) bool { return c.fields[i].Field < c.fields[j].Field })
	return &ValidationError{Fields: c.fields}
}
