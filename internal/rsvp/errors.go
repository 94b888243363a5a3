package rsvp

import "fmt"

// Code is a machine-readable RSVP failure kind.
type Code string

const (
	CodeTokenNotFound      Code = "TOKEN_NOT_FOUND"
	CodeInvalidEvent       Code = "INVALID_EVENT"
	CodeGuestLimitExceeded Code = "GUEST_LIMIT_EXCEEDED"
	CodeInvalidGuestName   Code = "INVALID_GUEST_NAME"
)

// Error is a caller-input failure. Message is safe to show to the guest.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrTokenNotFound      = &Error{Code: CodeTokenNotFound, Message: "Invalid invitation token"}
	ErrInvalidEvent       = &Error{Code: CodeInvalidEvent, Message: "Event must be either 'wedding' or 'henna'"}
	ErrGuestLimitExceeded = &Error{Code: CodeGuestLimitExceeded, Message: "Guest limit exceeded"}
	ErrInvalidGuestName   = &Error{Code: CodeInvalidGuestName, Message: "Guest names cannot be empty"}
)

func guestLimitError(limit, count int) *Error {
	msg := fmt.Sprintf("Cannot add %d guests. Maximum allowed: %d", count, limit)
	if limit == 0 {
		msg = fmt.Sprintf("This invitation does not allow additional guests (maximum 0, got %d)", count)
	}
	return &Error{Code: CodeGuestLimitExceeded, Message: msg}
}
