package keshflip

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthentication is returned when the API rejects the credentials or signature (HTTP 401).
	ErrAuthentication = errors.New("authentication failed")

	// ErrValidation is returned when request parameters are rejected (HTTP 400 or local checks).
	ErrValidation = errors.New("validation failed")

	// ErrAPI is returned for any other error response from the API.
	ErrAPI = errors.New("api error")

	// ErrNetwork is returned when the API could not be reached.
	ErrNetwork = errors.New("network error")

	// ErrPartnerIDRequired is returned before any request is sent when no partner id is known.
	ErrPartnerIDRequired = fmt.Errorf("%w: partner id must be provided or set on client", ErrValidation)
)

// Error describes a failed API call. Kind is one of ErrAuthentication,
// ErrValidation, ErrAPI or ErrNetwork, so errors.Is works against the kinds.
type Error struct {
	Kind       error
	StatusCode int
	Message    string
	Response   map[string]any
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("keshflip: %v (status %d): %s", e.Kind, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("keshflip: %v: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("keshflip: %v: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Temporary reports whether the call may succeed if retried.
func (e *Error) Temporary() bool {
	return errors.Is(e.Kind, ErrNetwork) || e.StatusCode >= http.StatusInternalServerError
}

func newResponseError(status int, response map[string]any) *Error {
	kind, fallback := ErrAPI, "API error"
	switch {
	case status == http.StatusUnauthorized:
		kind, fallback = ErrAuthentication, "Authentication failed"
	case status == http.StatusBadRequest:
		kind, fallback = ErrValidation, "Validation failed"
	}

	msg := fallback
	if m, ok := response["message"].(string); ok && m != "" && status != http.StatusUnauthorized {
		msg = m
	}

	return &Error{
		Kind:       kind,
		StatusCode: status,
		Message:    msg,
		Response:   response,
	}
}
