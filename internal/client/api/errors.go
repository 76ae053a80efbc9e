package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	pkgapi "github.com/newscoin/newscoin/pkg/api"
)

// ErrSessionExpired is wrapped by the APIError returned when the session
// could not be refreshed and was cleared
var ErrSessionExpired = errors.New("session expired")

// ErrMalformedResponse is returned when a 2xx body fails the endpoint schema
var ErrMalformedResponse = pkgapi.ErrMalformedResponse

// APIError is a non-2xx response from the backend
type APIError struct {
	// Message is the server supplied message, empty if the body had none
	Message           string
	StatusCode        int
	NeedsVerification bool
	SessionCleared    bool
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, msg)
}

// Unwrap exposes ErrSessionExpired for teardown failures
func (e *APIError) Unwrap() error {
	if e.SessionCleared {
		return ErrSessionExpired
	}
	return nil
}

// newAPIError extracts message and hints from an error body
func newAPIError(resp *Response) *APIError {
	apiErr := &APIError{
		StatusCode:     resp.StatusCode,
		SessionCleared: resp.SessionCleared,
	}

	var body pkgapi.ErrorResponse
	if err := json.Unmarshal(resp.Body, &body); err == nil {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
		if body.Data != nil {
			apiErr.NeedsVerification = body.Data.NeedsVerification
		}
	}

	return apiErr
}

// ServerMessage returns the message the backend attached to err, if any
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

// MessageOr returns the server message of err or fallback
func MessageOr(err error, fallback string) string {
	if msg, ok := ServerMessage(err); ok {
		return msg
	}
	return fallback
}

// StatusCode returns the HTTP status carried by err, 0 if none
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
