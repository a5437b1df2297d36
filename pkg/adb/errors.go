package adb

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/droidpilot/pkg/core"
)

// Error is a structured adb failure carrying the command and its output.
// The fault classifier recognizes it by type and inspects the coded
// cause to pick a recovery step.
type Error struct {
	Op     string // adb subcommand, e.g. "shell", "connect"
	Serial string
	Output string // combined stderr/stdout from adb
	Err    error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("adb %s (%s): %v: %s", e.Op, e.Serial, e.Err, strings.TrimSpace(e.Output))
	}
	return fmt.Sprintf("adb %s (%s): %v", e.Op, e.Serial, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// newError classifies raw adb output into a coded transport error so the
// dispatcher can decide between retry, reconnect and escalation.
func newError(op, serial, output string, err error) *Error {
	adbErr := &Error{Op: op, Serial: serial, Output: output, Err: err}
	lower := strings.ToLower(output)

	switch {
	case strings.Contains(lower, "device offline"),
		strings.Contains(lower, "is offline"):
		adbErr.Err = core.ErrDeviceOffline.WithCause(err)
	case strings.Contains(lower, "not found"),
		strings.Contains(lower, "no devices"):
		adbErr.Err = core.ErrDeviceNotFound.WithCause(err)
	case strings.Contains(lower, "connection reset"):
		adbErr.Err = core.ErrConnectionReset.WithCause(err)
	case strings.Contains(lower, "protocol fault"),
		strings.Contains(lower, "expected okay"),
		strings.Contains(output, "OKAY"):
		// adb wire handshake replied with something other than OKAY.
		// Only the protocol markers count; a casual lowercase "okay" in
		// ordinary command output is not a handshake failure.
		adbErr.Err = core.ErrHandshakeMismatch.WithCause(err)
	}
	return adbErr
}
