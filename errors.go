package huefy

import (
	"errors"

	"github.com/teracrafts/huefy-go/internal/core"
)

// Predefined sentinel errors for common cases.
var (
	// ErrInvalidConfiguration indicates invalid configuration.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("client closed")
)

// Error is the single error type returned by the client. Branch on Kind:
//
//	var e *huefy.Error
//	if errors.As(err, &e) && e.Kind == huefy.KindRateLimit {
//		wait(e.RetryAfter)
//	}
type Error = core.Error

// ErrorKind classifies an Error.
type ErrorKind = core.ErrorKind

// RetryableError interface indicates whether an error can be retried.
type RetryableError = core.RetryableError

// Error kinds.
const (
	KindAPI                 = core.KindAPI
	KindAuthentication      = core.KindAuthentication
	KindTemplateNotFound    = core.KindTemplateNotFound
	KindInvalidTemplateData = core.KindInvalidTemplateData
	KindInvalidRecipient    = core.KindInvalidRecipient
	KindValidation          = core.KindValidation
	KindRateLimit           = core.KindRateLimit
	KindProvider            = core.KindProvider
	KindServer              = core.KindServer
	KindNetwork             = core.KindNetwork
	KindTimeout             = core.KindTimeout
	KindCanceled            = core.KindCanceled
	KindProtocol            = core.KindProtocol
)

// DefaultRetryAfter is reported on rate limit errors that carried no wait hint.
const DefaultRetryAfter = core.DefaultRetryAfter

// Error helpers
var (
	NewValidationError          = core.NewValidationError
	NewValidationErrorWithValue = core.NewValidationErrorWithValue
	AsError                     = core.AsError
	KindOf                      = core.KindOf
	IsRetryable                 = core.IsRetryable
	GetRetryAfter               = core.GetRetryAfter
)
