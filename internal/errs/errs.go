// Package errs contains sentinel errors shared across layers so that the HTTP
// boundary can map failures to statuses without string matching.
package errs

import "errors"

var (
	// ErrNotFound indicates the requested recipe does not exist.
	ErrNotFound = errors.New("recipe not found")

	// ErrForbidden indicates the caller is authenticated but does not own the recipe.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyExists indicates a case-insensitive username/email collision.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports malformed, missing, or disallowed client input. It
// always maps to a 400 response carrying the message verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation builds a ValidationError with the given user-facing message.
func Validation(message string) error {
	return &ValidationError{Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
