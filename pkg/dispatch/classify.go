// Package dispatch wraps device actions with fault classification,
// recovery and bounded retry. Every action the bot performs against a
// device goes through Dispatcher; nothing below it is allowed to
// swallow a failure.
package dispatch

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"syscall"

	"github.com/devicelab-dev/droidpilot/pkg/adb"
	"github.com/devicelab-dev/droidpilot/pkg/core"
	"github.com/devicelab-dev/droidpilot/pkg/logger"
)

// Verdict is the classifier's recovery directive for a raw failure.
type Verdict int

const (
	VerdictRetry     Verdict = iota // transient or unknown, retry as-is
	VerdictReconnect                // transport severed, reconnect then retry
	VerdictReinstall                // agent corrupted or missing, reinstall then retry
	VerdictFatal                    // unrecoverable, escalate to a human
)

// String returns the string representation of Verdict
func (v Verdict) String() string {
	switch v {
	case VerdictRetry:
		return "retry"
	case VerdictReconnect:
		return "reconnect"
	case VerdictReinstall:
		return "reinstall"
	case VerdictFatal:
		return "fatal"
	default:
		return "invalid"
	}
}

// emulatorADBHint is shown when the adb handshake fails; this cannot be
// fixed by retrying, only by the operator changing emulator settings.
const emulatorADBHint = "If you are using BlueStacks or LD player, " +
	"please enable ADB in the settings of your emulator"

// ClassifyFunc maps a raw failure to a Verdict and, for VerdictFatal,
// a human-readable reason.
type ClassifyFunc func(err error) (Verdict, string)

// Classify is the default fault classifier. Rules are checked in order;
// first match wins. Every error is logged with full context before the
// verdict is applied, to aid post-mortem diagnosis of unattended runs.
func Classify(err error) (Verdict, string) {
	switch {
	case isConnectionReset(err):
		// adb server was killed mid-call.
		logger.Error("transport reset", "err", err)
		return VerdictReconnect, ""

	case isMalformedResponse(err):
		// Agent crashed or was never installed correctly.
		logger.Error("malformed agent response", "err", err)
		return VerdictReinstall, ""

	case isADBError(err):
		if ok, reason := handleADBError(err); !ok {
			return VerdictFatal, reason
		}
		return VerdictRetry, ""

	case isHandshakeMismatch(err):
		// Wire handshake did not return OKAY; never retry this.
		logger.Error("adb handshake mismatch", "err", err, "hint", emulatorADBHint)
		return VerdictFatal, emulatorADBHint

	default:
		// Unknown, probably a truncated image or a transient agent
		// hiccup. Log everything since the root cause is unclassified.
		logger.Error("unclassified device error, will retry", "err", err)
		return VerdictRetry, ""
	}
}

// isConnectionReset recognizes a severed transport.
func isConnectionReset(err error) bool {
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, core.ErrConnectionReset) {
		return true
	}
	return strings.Contains(err.Error(), "connection reset by peer")
}

// isMalformedResponse recognizes agent payloads that failed to decode.
func isMalformedResponse(err error) bool {
	if errors.Is(err, core.ErrMalformedResponse) {
		return true
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// isADBError recognizes structured transport failures from the adb layer.
func isADBError(err error) bool {
	var adbErr *adb.Error
	if errors.As(err, &adbErr) {
		// Handshake faults have their own terminal rule below.
		return !errors.Is(err, core.ErrHandshakeMismatch)
	}
	return errors.Is(err, core.ErrDeviceOffline) || errors.Is(err, core.ErrDeviceNotFound)
}

// isHandshakeMismatch recognizes the assertion-style protocol fault.
func isHandshakeMismatch(err error) bool {
	if errors.Is(err, core.ErrHandshakeMismatch) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "protocol fault") || strings.Contains(lower, "expected okay")
}

// handleADBError decides whether a structured adb failure is safe to
// retry. Known transient states (offline, not found, refused) come back
// after a moment or after adb restarts its server; anything else is
// escalated with the diagnostic as reason.
func handleADBError(err error) (retryable bool, reason string) {
	logger.Error("adb error", "err", err)

	lower := strings.ToLower(err.Error())
	transient := []string{
		"device offline",
		"is offline",
		"not found",
		"no devices",
		"connection refused",
		"cannot connect",
		"device still authorizing",
		"closed",
	}
	for _, marker := range transient {
		if strings.Contains(lower, marker) {
			return true, ""
		}
	}
	return false, err.Error()
}
