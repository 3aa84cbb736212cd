package main

import (
	"errors"
	"fmt"
)

// ErrRefreshInProgress is returned when a refresh is requested while another
// one is still running for the same coordinator.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// FetchError reports a failure before the payload could be mapped: transport
// errors, undecodable bodies, or a response without the top-level data field.
type FetchError struct {
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UpdateError reports a payload that was received but is malformed.
type UpdateError struct {
	Reason string
	Err    error
}

func (e *UpdateError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// errorKind names the failure class for logs and metric labels
func errorKind(err error) string {
	var fetchErr *FetchError
	var updateErr *UpdateError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &fetchErr):
		return "fetch_error"
	case errors.As(err, &updateErr):
		return "update_error"
	default:
		return "error"
	}
}
