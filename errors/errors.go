// Copyright (c) Measurement Network.
// Licensed under the MIT License.
package errors

type (
	// Error represents a structured gateway error.
	Error struct {
		Message string
		Kind    Kind

		NestedError error

		PropertyName  string
		PropertyValue any
	}

	// Kind defines the type of error being reported.
	Kind int
)

// The following are the defined error kinds.
const (
	// Command validation errors. These are recoverable: the command is
	// rejected and no state changes.
	Syntax Kind = iota
	UnknownSensor
	FreqOutOfRange

	// State precondition violations. Also recoverable.
	NotConnected
	AlreadyRunning
	NotRunning
	DisallowedWhileRunning

	// Connection-fatal errors.
	Framing
	Transport

	// Invalid settings or options.
	ConfigurationInvalid
)

// String returns the canonical name of the error kind.
func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax"
	case UnknownSensor:
		return "unknown sensor"
	case FreqOutOfRange:
		return "frequency out of range"
	case NotConnected:
		return "not connected"
	case AlreadyRunning:
		return "already running"
	case NotRunning:
		return "not running"
	case DisallowedWhileRunning:
		return "disallowed while running"
	case Framing:
		return "framing"
	case Transport:
		return "transport"
	case ConfigurationInvalid:
		return "configuration invalid"
	default:
		return "unknown"
	}
}

// Error returns the error as a string.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the nested error, if any.
func (e *Error) Unwrap() error {
	return e.NestedError
}

// IsFatal reports whether the error terminates the connection it occurred
// on. Command validation and state precondition errors never do.
func (e *Error) IsFatal() bool {
	return e.Kind == Framing || e.Kind == Transport
}
