package llm

import (
	"errors"
	"fmt"
)

// ErrCapacityExceeded marks a provider capacity (rate limit) response. It is
// the only error class the retry wrapper retries.
var ErrCapacityExceeded = errors.New("generation capacity exceeded")

// ProviderError is any non-capacity failure from the generation or
// moderation provider. It propagates immediately, without retry.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
}
