package scheduler

import (
	"errors"
	"fmt"
)

// ConfigurationError marks a dispatch failure caused by account or setup
// state. Never retried: misconfiguration is not transient.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

// ErrAccountNotConnected is raised when a user has no publishing credential.
var ErrAccountNotConnected = &ConfigurationError{Reason: "no connected publishing account"}

// IsConfiguration reports whether err is terminal misconfiguration.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// ExhaustedRetriesError wraps the last delivery error once the retry budget
// is spent.
type ExhaustedRetriesError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Last
}
