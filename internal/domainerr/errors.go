// Package domainerr defines the structured failures the frequency engines
// return. Every error carries a stable Kind and a message that is safe to
// show to callers; the optional Cause is for logs only.
package domainerr

import (
	"errors"
	"fmt"
)

type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error of the same kind, so errors.Is(err,
// domainerr.ErrNotFound) works for any not-found failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Kind sentinels for errors.Is
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrInvariantViolation = &Error{Kind: KindInvariantViolation}
	ErrDomainInvalid      = &Error{Kind: KindDomainInvalid}
	ErrCapacityExceeded   = &Error{Kind: KindCapacityExceeded}
	ErrBadRequest         = &Error{Kind: KindBadRequest}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
)

// Constructors
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func NotFound(msg string) error {
	return New(KindNotFound, msg)
}

func Conflict(msg string) error {
	return New(KindConflict, msg)
}

func Forbidden(msg string) error {
	return New(KindForbidden, msg)
}

func InvariantViolation(msg string) error {
	return New(KindInvariantViolation, msg)
}

func DomainInvalid(msg string) error {
	return New(KindDomainInvalid, msg)
}

func CapacityExceeded(msg string) error {
	return New(KindCapacityExceeded, msg)
}

func BadRequest(msg string) error {
	return New(KindBadRequest, msg)
}

func Unauthorized(msg string) error {
	return New(KindUnauthorized, msg)
}

func TooManyRequests(msg string) error {
	return New(KindTooManyRequests, msg)
}

func Internal(msg string, cause error) error {
	return Wrap(KindInternal, msg, cause)
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindUnknown when err is unclassified.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// PublicMessage returns the caller-safe message of a classified error.
// Unclassified errors collapse to fallback so internals never leak.
func PublicMessage(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != KindInternal && de.Message != "" {
		return de.Message
	}
	return fallback
}
