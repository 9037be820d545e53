package ingest

import (
	"fmt"
	"strings"
)

// FieldError records a cell that could not be parsed. The field is loaded
// as missing so the validation stage reports it.
type FieldError struct {
	Line    int    `json:"line"`
	Column  string `json:"column"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e FieldError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("line %d, column '%s': %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ErrorCollection keeps the first maxErrors field errors and counts the rest
type ErrorCollection struct {
	errors     []FieldError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a collection capped at maxErrors (default 100)
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{maxErrors: maxErrors}
}

// Add records an error
func (ec *ErrorCollection) Add(err FieldError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddInvalid records a value that failed to parse as expected
func (ec *ErrorCollection) AddInvalid(line int, column, value, expected string) {
	ec.Add(FieldError{Line: line, Column: column, Value: value, Message: "not a valid " + expected})
}

// Errors returns the retained errors
func (ec *ErrorCollection) Errors() []FieldError {
	return ec.errors
}

// TotalCount returns every error seen, including those past the cap
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors reports whether any error was recorded
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated reports whether errors were dropped past the cap
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > len(ec.errors)
}

// ByColumn counts errors per column
func (ec *ErrorCollection) ByColumn() map[string]int {
	out := make(map[string]int)
	for _, e := range ec.errors {
		out[e.Column]++
	}
	return out
}

// String summarises the collection for logs
func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d field error(s)", ec.totalCount)
	if ec.IsTruncated() {
		fmt.Fprintf(&sb, " (showing first %d)", len(ec.errors))
	}
	for _, e := range ec.errors {
		sb.WriteString("\n  ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}
