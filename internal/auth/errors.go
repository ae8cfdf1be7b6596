package auth

import (
	"errors"
	"net/http"
)

// Error is an auth failure carrying the message and HTTP-like status the
// caller relays or pattern-matches on.
type Error struct {
	Message string
	Status  int
}

func (e *Error) Error() string { return e.Message }

var (
	ErrInvalidCredentials = &Error{Message: "Invalid login credentials", Status: http.StatusBadRequest}
	ErrEmailNotConfirmed  = &Error{Message: "Email not confirmed", Status: http.StatusForbidden}
	ErrUserNotFound       = &Error{Message: "User not found", Status: http.StatusNotFound}
	ErrUserExists         = &Error{Message: "User already registered", Status: http.StatusUnprocessableEntity}
	ErrWeakPassword       = &Error{Message: "Password should be at least 6 characters.", Status: http.StatusUnprocessableEntity}
	ErrInvalidEmail       = &Error{Message: "Unable to validate email address: invalid format", Status: http.StatusBadRequest}
	ErrSessionMissing     = &Error{Message: "Auth session missing!", Status: http.StatusUnauthorized}
	ErrInvalidToken       = &Error{Message: "Invalid or expired token", Status: http.StatusUnauthorized}
)

// AsError unwraps err into an *Error when it is one.
func AsError(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
