package research

import "errors"

// Validation-class failures. Each is reported to the caller with its
// description and is never retried.
var (
	ErrEmptyQuery         = errors.New("query cannot be empty after sanitization")
	ErrUnsafeQuery        = errors.New("query rejected for safety reasons")
	ErrNoSafeSubQuestions = errors.New("no safe sub-questions could be generated")
	ErrSynthesisFailed    = errors.New("failed to generate summary after multiple attempts")
	ErrUnsafeAnswer       = errors.New("generated content rejected for safety reasons")
)

// IsValidation reports whether err is a client-input failure rather than a
// server fault.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyQuery) ||
		errors.Is(err, ErrUnsafeQuery) ||
		errors.Is(err, ErrNoSafeSubQuestions) ||
		errors.Is(err, ErrSynthesisFailed) ||
		errors.Is(err, ErrUnsafeAnswer)
}
