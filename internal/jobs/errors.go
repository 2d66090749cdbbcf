package jobs

import "errors"

// Sentinel errors shared by the stores and the feedback learner. Transport
// layers map them to their own status codes.
var (
	// ErrNotFound means the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the row exists but belongs to another user.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError rejects malformed input before any mutation happens.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
