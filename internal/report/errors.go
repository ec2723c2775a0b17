package report

import "errors"

// ErrDataUnavailable signals that the underlying order storage query
// failed. The boundary surfaces it as a generic server error; raw
// storage error text never reaches the client.
var ErrDataUnavailable = errors.New("order data unavailable")

// ValidationError marks user-correctable input problems. Code is a
// machine-readable identifier, Field names the offending parameter.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a field-specific validation failure.
func NewValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}
