package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an application error. Each kind maps to exactly one HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidRequest
	KindUnauthorized
)

// Status returns the HTTP status for k.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Machine codes rendered by clients as the `error` field.
func (k Kind) PublicCode() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidRequest:
		return "invalid_request"
	case KindUnauthorized:
		return "no_credentials"
	default:
		return "server_error"
	}
}

// Sub-codes distinguishing domain outcomes for callers and tests.
const (
	CodeUnknownStand        = "unknown_stand"
	CodeUnknownTaxi         = "unknown_taxi"
	CodeUnknownJourney      = "unknown_journey"
	CodeUnknownRegistration = "unknown_registration"
	CodeUnknownSearch       = "unknown_search"
	CodeNoSelection         = "no_selection"
	CodeNoActiveJourney     = "no_active_journey"
	CodeTaxiExists          = "taxi_exists"
	CodeJourneyInProgress   = "journey_in_progress"
	CodeHasBookings         = "has_bookings"
	CodeInvalidCredentials  = "invalid_credentials"
	CodeValidation          = "validation_error"
	CodeIdempotencyReuse    = "idempotency_key_reuse"
	CodeNoCredentials       = "no_credentials"
	CodeServerError         = "server_error"
)

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any

	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return e.Code + ": " + e.cause.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Status returns the HTTP status for the error's kind.
func (e *Error) Status() int { return e.Kind.Status() }

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func InvalidRequest(code, message string) *Error {
	return &Error{Kind: KindInvalidRequest, Code: code, Message: message}
}

func Validation(message string, details map[string]any) *Error {
	return &Error{Kind: KindInvalidRequest, Code: CodeValidation, Message: message, Details: details}
}

func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Code: CodeNoCredentials, Message: "You must be authenticated"}
}

// Internal wraps cause behind a generic message. The cause is kept for logging and errors.Is only.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Code: CodeServerError, Message: "Oops! Something went wrong...", cause: cause}
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code string) bool {
	ae, ok := As(err)
	return ok && ae.Code == code
}
