package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind is the discriminant of Error. Callers branch on it instead of
// on concrete types.
type ErrorKind string

const (
	// KindAPI is the catch-all for anything the service reports that has no
	// more specific kind.
	KindAPI ErrorKind = "huefy_error"

	KindAuthentication      ErrorKind = "authentication_error"
	KindTemplateNotFound    ErrorKind = "template_not_found"
	KindInvalidTemplateData ErrorKind = "invalid_template_data"
	KindInvalidRecipient    ErrorKind = "invalid_recipient"
	KindValidation          ErrorKind = "validation_error"
	KindRateLimit           ErrorKind = "rate_limit_error"
	KindProvider            ErrorKind = "provider_error"
	KindServer              ErrorKind = "server_error"
	KindNetwork             ErrorKind = "network_error"
	KindTimeout             ErrorKind = "timeout_error"

	// KindCanceled means the caller's context was canceled mid-operation.
	KindCanceled ErrorKind = "canceled"

	// KindProtocol means the service answered with something the client
	// cannot interpret, such as a bulk result count that differs from the
	// request count.
	KindProtocol ErrorKind = "protocol_error"
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	return string(k)
}

// DefaultRetryAfter is reported on rate limit errors when the service did not
// say how long to wait.
const DefaultRetryAfter = 60 * time.Second

// Error is the single error type surfaced by the client. Fields beyond Kind
// and Message are populated only for the kinds they belong to.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Message is the human readable description.
	Message string

	// Code is the service error code (error.code), if any.
	Code string

	// Status is the HTTP status code, zero for local and transport failures.
	Status int

	// Body is the raw response body of an HTTP failure.
	Body []byte

	// Details holds error.details as decoded from the body.
	Details map[string]any

	// Field names the offending field of a local validation failure.
	Field string

	// Value is the offending value of a local validation failure (optional).
	Value any

	// TemplateKey is set for KindTemplateNotFound.
	TemplateKey string

	// ValidationErrors is set for KindInvalidTemplateData.
	ValidationErrors []string

	// Provider and ProviderCode are set for KindProvider.
	Provider     string
	ProviderCode string

	// RetryAfter is set for KindRateLimit. RetryAfterParsed reports whether
	// the service supplied it or DefaultRetryAfter was used.
	RetryAfter       time.Duration
	RetryAfterParsed bool

	// Attempts is the number of transport attempts made before surfacing.
	Attempts int

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
		if e.Value != nil {
			msg = fmt.Sprintf("%s (value: %v)", msg, e.Value)
		}
	}

	switch {
	case e.Code != "" && e.Status > 0:
		return fmt.Sprintf("huefy %s [%s] (status: %d): %s", e.Kind, e.Code, e.Status, msg)
	case e.Code != "":
		return fmt.Sprintf("huefy %s [%s]: %s", e.Kind, e.Code, msg)
	case e.Status > 0:
		return fmt.Sprintf("huefy %s (status: %d): %s", e.Kind, e.Status, msg)
	case e.Cause != nil && msg == "":
		return fmt.Sprintf("huefy %s: %v", e.Kind, e.Cause)
	default:
		return fmt.Sprintf("huefy %s: %s", e.Kind, msg)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind, so errors.Is(err,
// &Error{Kind: KindRateLimit}) works regardless of payload.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

// Retryable reports whether the failure is transient: network, timeout,
// rate limit, or any server-side status >= 500.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout, KindRateLimit, KindServer:
		return true
	}
	return e.Status >= 500
}

// Temporary implements the temporary error convention.
func (e *Error) Temporary() bool {
	return e.Retryable()
}

// RetryAfterDuration returns the service-supplied wait, or zero if none was parsed.
func (e *Error) RetryAfterDuration() time.Duration {
	if e.Kind != KindRateLimit || !e.RetryAfterParsed {
		return 0
	}
	return e.RetryAfter
}

// RetryableError interface indicates whether an error can be retried.
type RetryableError interface {
	Retryable() bool
}

// NewError creates an error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewValidationError creates a local validation error.
func NewValidationError(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// NewValidationErrorWithValue creates a local validation error with the offending value.
func NewValidationErrorWithValue(field, message string, value any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message, Value: value}
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or the empty kind if err is not an *Error.
func KindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return ""
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var re RetryableError
	if errors.As(err, &re) {
		return re.Retryable()
	}

	return false
}

// GetRetryAfter extracts the service-supplied retry delay from an error if available.
func GetRetryAfter(err error) time.Duration {
	if e, ok := AsError(err); ok {
		return e.RetryAfterDuration()
	}
	return 0
}
