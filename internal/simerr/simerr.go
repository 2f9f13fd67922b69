// Package simerr provides the tagged error outcome reported to callers of the
// simulator. Each error carries a machine-readable Code, the Phase in which it
// occurred and the identifier that caused it.
package simerr

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an untagged error.
	CodeUnknown Code = "UNKNOWN"

	// Configuration errors
	CodeNoPlayers       Code = "CONFIG_NO_PLAYERS"
	CodeUnknownTarget   Code = "CONFIG_UNKNOWN_TARGET"
	CodeInvalidDuration Code = "CONFIG_INVALID_DURATION"
	CodeInvalidTier     Code = "CONFIG_INVALID_TIER"

	// Run errors
	CodeSetupFailed Code = "SETUP_FAILED"
	CodeCancelled   Code = "CANCELLED"

	// Data errors
	CodeDataLoadFailed Code = "DATA_LOAD_FAILED"
)

// Phase names the stage of a run that produced an error.
type Phase string

const (
	PhaseLoad  Phase = "load"
	PhaseSetup Phase = "setup"
	PhaseRun   Phase = "run"
)

// Error is a simulation-fatal failure.
type Error struct {
	Code  Code
	Phase Phase
	// Ref is the offending identifier (player id, encounter hrid, file path), if any.
	Ref string
	Err error
}

// New creates an Error without a cause.
func New(code Code, phase Phase, ref, msg string) *Error {
	return &Error{Code: code, Phase: phase, Ref: ref, Err: errors.New(msg)}
}

// Wrap creates an Error around err.
//
// Precondition: err is non-nil.
func Wrap(code Code, phase Phase, ref string, err error) *Error {
	return &Error{Code: code, Phase: phase, Ref: ref, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s [%s] %s: %v", e.Phase, e.Code, e.Ref, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Phase, e.Code, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// GetCode extracts the Code from err, or CodeUnknown when err is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}
