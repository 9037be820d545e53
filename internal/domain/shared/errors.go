// Package shared holds the error vocabulary the pipeline stages share with
// the HTTP and CLI layers.
package shared

import "fmt"

// DomainError carries a stable code the outer layers map to a status or an
// exit code. Copies made by Withf and Because still match their sentinel
// under errors.Is.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.cause }

// Is matches any DomainError with the same code
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// Withf returns a copy of e with a message naming the affected record
func (e *DomainError) Withf(format string, args ...any) *DomainError {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

// Because returns a copy of e that wraps cause
func (e *DomainError) Because(cause error) *DomainError {
	c := *e
	c.cause = cause
	return &c
}

var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrRunInProgress = NewDomainError("RUN_IN_PROGRESS", "Another pipeline run holds the lock")
	ErrNoCities      = NewDomainError("NO_CITIES", "No curated rows carry a city code")
)
