// Package apperror defines the error kinds every application service returns.
// Only the HTTP layer turns a kind into a status code.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure independently of where it happened.
type Kind string

const (
	KindStoreUnavailable   Kind = "store_unavailable"
	KindAlreadyExists      Kind = "already_exists"
	KindTabConflict        Kind = "tab_conflict"
	KindInvalidInput       Kind = "invalid_input"
	KindInvalidName        Kind = "invalid_name"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindCorruptCredential  Kind = "corrupt_credential"
	KindNotFound           Kind = "not_found"
	KindForbidden          Kind = "forbidden"
)

// Sentinels for errors.Is. A sentinel matches any *Error of the same kind.
var (
	ErrStoreUnavailable   = &Error{Kind: KindStoreUnavailable}
	ErrAlreadyExists      = &Error{Kind: KindAlreadyExists}
	ErrTabConflict        = &Error{Kind: KindTabConflict}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrInvalidName        = &Error{Kind: KindInvalidName}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrCorruptCredential  = &Error{Kind: KindCorruptCredential}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrForbidden          = &Error{Kind: KindForbidden}
)

// Error is the tagged failure value returned across service boundaries.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels (no message, no cause) by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Err == nil {
		return t.Kind == e.Kind
	}
	return t == e
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// StoreUnavailable wraps a raw store failure.
func StoreUnavailable(op string, err error) *Error {
	return Wrap(KindStoreUnavailable, op, err)
}

// KindOf extracts the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf returns the user-facing message of err, falling back to its kind.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		return string(e.Kind)
	}
	return "internal error"
}
