// Package errors defines the internal error types shared across the
// issuance pipeline. Every error a component returns is either a
// Malformed error (the caller's input was unacceptable and retrying
// the same input will never succeed) or an InternalServer error
// (something in the environment failed: signing, randomness, encoding).
package errors

import "fmt"

// ErrorType provides a coarse category for CredhubErrors.
// Callers can check the category with errors.Is:
//
//	if errors.Is(err, cerrors.Malformed) { ... }
type ErrorType int

const (
	// InternalServer covers failures unrelated to the caller's input:
	// serial source exhaustion, signing failures, encoding failures.
	InternalServer ErrorType = iota
	// Malformed covers unacceptable caller input, such as an
	// unclassifiable alternative name or an unparsable principal.
	Malformed
)

func (ErrorType) Error() string {
	return "urn:credhub:error"
}

// CredhubError represents internal issuance errors. It carries an
// ErrorType so callers can distinguish validation failures from system
// failures without string matching.
type CredhubError struct {
	Type   ErrorType
	Detail string
}

func (e *CredhubError) Error() string {
	return e.Detail
}

// Unwrap exposes the underlying ErrorType, allowing the use of
// errors.Is against the category constants.
func (e *CredhubError) Unwrap() error {
	return e.Type
}

// New is a convenience function for creating a new CredhubError.
func New(errType ErrorType, msg string, args ...any) error {
	return &CredhubError{
		Type:   errType,
		Detail: fmt.Sprintf(msg, args...),
	}
}

// InternalServerError creates a new CredhubError of type InternalServer.
func InternalServerError(msg string, args ...any) error {
	return New(InternalServer, msg, args...)
}

// MalformedError creates a new CredhubError of type Malformed.
func MalformedError(msg string, args ...any) error {
	return New(Malformed, msg, args...)
}

// Is reports whether err is a CredhubError of the given type.
func Is(err error, errType ErrorType) bool {
	cErr, ok := err.(*CredhubError)
	if !ok {
		return false
	}
	return cErr.Type == errType
}
