package core

import (
	"errors"
	"fmt"
)

// HumanTakeoverError is the single terminal signal raised when automation
// cannot continue without operator intervention. Callers must halt the
// control loop when they receive it; it is never retryable.
type HumanTakeoverError struct {
	Action string // label of the failed device action
	Hint   string // optional configuration hint for the operator
	Cause  error
}

// Error implements the error interface
func (e *HumanTakeoverError) Error() string {
	msg := "human takeover required"
	if e.Action != "" {
		msg = fmt.Sprintf("%s: %s failed", msg, e.Action)
	}
	if e.Hint != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Hint)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *HumanTakeoverError) Unwrap() error {
	return e.Cause
}

// RequestHumanTakeover builds a HumanTakeoverError for the given action.
func RequestHumanTakeover(action, hint string, cause error) *HumanTakeoverError {
	return &HumanTakeoverError{Action: action, Hint: hint, Cause: cause}
}

// IsHumanTakeover reports whether err carries a HumanTakeoverError
// anywhere in its chain.
func IsHumanTakeover(err error) bool {
	var takeover *HumanTakeoverError
	return errors.As(err, &takeover)
}
