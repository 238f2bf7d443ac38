package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryBootstrap Category = "bootstrap"
	CategoryRouting   Category = "routing"
	CategoryConfig    Category = "config"
	CategoryManifest  Category = "manifest"
	CategoryCLI       Category = "cli"
)

// NitroError is a structured error with a code, suggestion, and documentation link.
type NitroError struct {
	// Code is a unique error identifier (e.g., "N001").
	Code string

	// Category is the error type (bootstrap, routing, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Subject names the offending item (a route path, a module, a file).
	Subject string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *NitroError) Error() string {
	msg := e.Message
	if e.Subject != "" {
		msg += " (" + e.Subject + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *NitroError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a NitroError with the same code.
func (e *NitroError) Is(target error) bool {
	t, ok := target.(*NitroError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithSubject records the item the error is about.
func (e *NitroError) WithSubject(s string) *NitroError {
	e.Subject = s
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *NitroError) WithSuggestion(s string) *NitroError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *NitroError) WithDetail(d string) *NitroError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *NitroError) Wrap(err error) *NitroError {
	e.Wrapped = err
	return e
}

// New creates a NitroError from a registered error code.
func New(code string) *NitroError {
	template, ok := registry[code]
	if !ok {
		return &NitroError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &NitroError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new NitroError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *NitroError {
	return &NitroError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a NitroError.
func FromError(err error, code string) *NitroError {
	if err == nil {
		return nil
	}
	var ne *NitroError
	if stderrors.As(err, &ne) {
		return ne
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err carries the given Nitro error code anywhere in its chain.
func HasCode(err error, code string) bool {
	var ne *NitroError
	if !stderrors.As(err, &ne) {
		return false
	}
	return ne.Code == code
}
