package api

import (
	"errors"
	"fmt"
)

// ErrAuthRequired means the session cookie is missing or expired; the
// caller should send the user to the login screen.
var ErrAuthRequired = errors.New("authentication required")

// NetworkError covers transport failures and responses without a usable JSON body.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RejectedError is a well-formed response with success set to false.
type RejectedError struct {
	Op      string
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Op, e.Reason())
}

// Reason is the server's error text, or "Unknown error" when it sent none.
func (e *RejectedError) Reason() string {
	if e.Message == "" {
		return "Unknown error"
	}
	return e.Message
}

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func IsRejected(err error) (*RejectedError, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
