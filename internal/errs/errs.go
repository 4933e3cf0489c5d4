// ABOUTME: Structured error type shared by every layer of faculty matching
// ABOUTME: Carries an error kind so callers can decide whether to retry or reconfigure
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by what the caller can do about it.
type Kind int

const (
	// KindUnknown is reported for errors that never passed through this package.
	KindUnknown Kind = iota
	// KindConfiguration is an invalid selection detected before any I/O. Never retried.
	KindConfiguration
	// KindResource is an unreadable, missing, or malformed file.
	KindResource
	// KindProtocol means the embedding worker session is unusable and was torn down.
	KindProtocol
	// KindHelper means the worker ran but reported an application failure.
	KindHelper
	// KindCommunicationLost means the worker went away before a terminal reply.
	KindCommunicationLost
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindResource:
		return "resource"
	case KindProtocol:
		return "protocol"
	case KindHelper:
		return "helper"
	case KindCommunicationLost:
		return "communication-lost"
	default:
		return "unknown"
	}
}

// Error is the single error type that crosses package boundaries.
type Error struct {
	Kind    Kind
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration reports an invalid selection.
func Configuration(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// Resource reports a file problem with the offending path.
func Resource(path string, err error, format string, args ...any) error {
	return &Error{Kind: KindResource, Path: path, Message: fmt.Sprintf(format, args...), Err: err}
}

// Protocol reports a broken worker session.
func Protocol(err error, format string, args ...any) error {
	return &Error{Kind: KindProtocol, Message: fmt.Sprintf(format, args...), Err: err}
}

// Helper reports an application failure raised inside the worker.
func Helper(message string) error {
	return &Error{Kind: KindHelper, Message: message}
}

// CommunicationLost reports a worker that disappeared mid-request.
func CommunicationLost(message string) error {
	return &Error{Kind: KindCommunicationLost, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
