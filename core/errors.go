package core

import "github.com/pkg/errors"

// FieldError carries a validation failure for one named field, keyed by its
// JSON name.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a client-caused error. The API renders it as a 400 with
// either the Fields map or the bare message, so grading and domain checks can
// reject a request without tripping the server error path.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals an integrity problem the process should not survive, such
// as a reward write reporting an impossible state.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

// IsShutdown checks the error cause chain for a shutdown error.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
