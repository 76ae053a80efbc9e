package api

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse indicates that a 2xx body does not match the endpoint schema
var ErrMalformedResponse = errors.New("malformed response")

// Envelope is the common response wrapper used by every endpoint
type Envelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

// ErrorData carries machine-readable hints in failure bodies
type ErrorData struct {
	NeedsVerification bool `json:"needsVerification,omitempty"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Data    *ErrorData `json:"data,omitempty"`
	Message string     `json:"message,omitempty"` // сообщение для пользователя
	Error   string     `json:"error,omitempty"`   // описание ошибки (старый формат)
	Success bool       `json:"success"`
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
