package api

import (
	"errors"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRejected     = errors.New("request rejected")
)

// APIError is a response the server answered but did not accept: either a
// non-2xx status or a success:false envelope.
type APIError struct {
	Status  int
	Message string
	kind    error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if text := http.StatusText(e.Status); text != "" {
		return e.kind.Error() + ": " + text
	}
	return e.kind.Error()
}

func (e *APIError) Unwrap() error {
	return e.kind
}

func newAPIError(status int, message string, envelopeRejected bool) *APIError {
	kind := ErrRejected
	if !envelopeRejected {
		switch status {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = ErrUnauthorized
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			kind = ErrUnavailable
		}
	}
	return &APIError{Status: status, Message: message, kind: kind}
}

// Message returns the text to show a user for err: the server's message when
// it sent one, a generic line when the server is unreachable, and fallback
// otherwise.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrUnavailable) {
		return "Server unavailable, please try again later."
	}
	return fallback
}
