package fluffy

import (
	"fmt"
	"github.com/pkg/errors"
)

// ErrInvalidCredentials is returned when slack rejects the bot token
var ErrInvalidCredentials = errors.New("invalid credentials")

// ConfigurationError is returned when a trigger registration is invalid. It's fatal to that
// registration only
type ConfigurationError struct {
	Kind   Kind
	Phrase string
	Reason string
}

// Error returns a description of the invalid registration
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s trigger [%s]: %s", e.Kind, e.Phrase, e.Reason)
}

// ConnectionError is returned by Run when the real time session can't be established
type ConnectionError struct {
	cause error
}

// Error returns the connection failure description
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to initialize rtm connection to slack (invalid token or network issues?): %v", e.cause)
}

// Cause returns the underlying error. It's compatible with errors.Cause from github.com/pkg/errors
func (e *ConnectionError) Cause() error {
	return e.cause
}

// Unwrap returns the underlying error
func (e *ConnectionError) Unwrap() error {
	return e.cause
}
