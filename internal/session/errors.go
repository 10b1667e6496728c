package session

import (
	"errors"
	"fmt"
)

// ValidationError rejects an operation before any network call is made.
// It is surfaced as a transient message and leaves session state untouched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// AuthError reports a failed credential match. The message deliberately
// does not reveal whether the email or the password was wrong.
type AuthError struct{}

func (e *AuthError) Error() string {
	return "invalid email or password"
}

// ConnectivityError reports a transport failure in an operation's primary
// path.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// ErrSearchInFlight rejects a search started while another one is still
// running. Overlapping searches would race on the session state, so the
// caller retries once the current one settles.
var ErrSearchInFlight = errors.New("a search is already in flight")

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsAuth reports whether err is an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsConnectivity reports whether err is a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}
