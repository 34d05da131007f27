package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError.
type Kind string

const (
	// KindHTTP is a 4xx/5xx response that is not an authentication failure.
	KindHTTP Kind = "http"
	// KindUnauthenticated means no usable token, or the server rejected it with 401.
	KindUnauthenticated Kind = "unauthenticated"
	// KindNetwork means no response reached the client.
	KindNetwork Kind = "network"
	// KindMalformedResponse means the response shape violates the endpoint contract.
	KindMalformedResponse Kind = "malformed_response"
	// KindValidation is a client-side input failure; Field names the offending input.
	KindValidation Kind = "validation"
)

// AppError is a custom error type that includes an HTTP status code and an optional internal error code.
type AppError struct {
	Kind    Kind
	Code    int    // HTTP Status Code (e.g., 400, 404), 0 when no response was received
	Message string // User-facing error message
	Body    string // Raw response body for KindHTTP
	Field   string // Offending field for KindValidation
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Kind:    KindHTTP,
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Kind:    KindHTTP,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HTTP builds the error for a non-2xx response.
// A 401 is classified as KindUnauthenticated.
func HTTP(status int, body, message string) *AppError {
	kind := KindHTTP
	if status == http.StatusUnauthorized {
		kind = KindUnauthenticated
	}
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}
	return &AppError{
		Kind:    kind,
		Code:    status,
		Message: message,
		Body:    body,
	}
}

func Unauthenticated(message string) *AppError {
	return &AppError{
		Kind:    KindUnauthenticated,
		Code:    http.StatusUnauthorized,
		Message: message,
	}
}

func Network(err error) *AppError {
	return &AppError{
		Kind:    KindNetwork,
		Message: "network error: could not reach the server",
		Err:     err,
	}
}

func Malformed(message string, err error) *AppError {
	return &AppError{
		Kind:    KindMalformedResponse,
		Message: message,
		Err:     err,
	}
}

func Validation(field, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    http.StatusBadRequest,
		Message: message,
		Field:   field,
	}
}

// KindOf returns the Kind of the first AppError in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
