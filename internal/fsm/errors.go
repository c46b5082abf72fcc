package fsm

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrAlreadyStarted is returned by Start on every call after the first,
	// and by Setup once the machine runs.
	ErrAlreadyStarted = errors.New("fsm: machine already started")
	// ErrNotConfigured is returned by Start when Setup has not succeeded.
	ErrNotConfigured = errors.New("fsm: machine not configured")
)

// ConfigurationError reports an invalid state table. A machine whose Setup
// failed with it cannot be started.
type ConfigurationError struct {
	State  string // offending state id, empty when not tied to one state
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.State == "" {
		return "fsm: invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("fsm: invalid configuration: state %s: %s", e.State, e.Reason)
}

func newConfigurationError(state any, format string, args ...any) *ConfigurationError {
	e := &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
	if state != nil {
		e.State = fmt.Sprint(state)
	}
	return e
}

// IsConfigurationError reports whether err wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}
