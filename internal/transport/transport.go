// Package transport sends one attempt of an operation to the service and
// reports what happened as an Outcome. It never turns HTTP error statuses
// into Go errors; those arrive as HTTP failures for the classifier to read.
package transport

import (
	"context"
	"net/http"
	"time"
)

// OutcomeKind tags an Outcome.
type OutcomeKind int

const (
	// OutcomeSuccess is a response with status < 400.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeTransportFailure means no response was received
	// (timeout, DNS, connection refused or reset).
	OutcomeTransportFailure

	// OutcomeHTTPFailure is a response with status >= 400.
	OutcomeHTTPFailure
)

// String returns the string representation of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeTransportFailure:
		return "transport_failure"
	case OutcomeHTTPFailure:
		return "http_failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of one transport invocation.
type Outcome struct {
	Kind   OutcomeKind
	Status int
	Header http.Header
	Body   []byte

	// Cause is set for transport failures.
	Cause error

	// Timeout marks a transport failure caused by a connect or read timeout.
	Timeout bool
}

// Success builds a successful outcome.
func Success(status int, header http.Header, body []byte) Outcome {
	return Outcome{Kind: OutcomeSuccess, Status: status, Header: header, Body: body}
}

// HTTPFailure builds an outcome for a response with an error status.
func HTTPFailure(status int, header http.Header, body []byte) Outcome {
	return Outcome{Kind: OutcomeHTTPFailure, Status: status, Header: header, Body: body}
}

// TransportFailure builds an outcome for a request that got no response.
func TransportFailure(cause error, timeout bool) Outcome {
	return Outcome{Kind: OutcomeTransportFailure, Cause: cause, Timeout: timeout}
}

// FromResponse tags a received response by its status.
func FromResponse(status int, header http.Header, body []byte) Outcome {
	if status >= 400 {
		return HTTPFailure(status, header, body)
	}
	return Success(status, header, body)
}

// Request is one attempt to send.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte

	// Timeout bounds the attempt. Zero means the transport default.
	Timeout time.Duration
}

// Transport performs a single attempt. Implementations must be safe for
// concurrent use and must honor ctx cancellation.
type Transport interface {
	Send(ctx context.Context, req Request) Outcome
}

// Func adapts a function to the Transport interface.
type Func func(ctx context.Context, req Request) Outcome

// Send calls f(ctx, req).
func (f Func) Send(ctx context.Context, req Request) Outcome {
	return f(ctx, req)
}
