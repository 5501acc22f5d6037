package core

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// OperationKind names one logical call to the service.
type OperationKind string

const (
	OpSendSingle  OperationKind = "send_single"
	OpSendBulk    OperationKind = "send_bulk"
	OpHealthCheck OperationKind = "health_check"
)

// Service paths.
const (
	PathEmails     = "/v1/emails"
	PathEmailsBulk = "/v1/emails/bulk"
	PathHealth     = "/v1/health"
)

// Operation is one logical call: a method, a path and an already-encoded body.
// It is immutable once built; every attempt of its retry loop sends the same
// bytes and the same request id.
type Operation struct {
	Kind      OperationKind
	Method    string
	Path      string
	Body      []byte
	RequestID string
}

// NewSendOperation encodes a single send.
func NewSendOperation(req *SendEmailRequest) (Operation, error) {
	if req == nil {
		return Operation{}, NewValidationError("request", "request is nil")
	}
	body, err := encode(req.normalized())
	if err != nil {
		return Operation{}, err
	}
	return newOperation(OpSendSingle, http.MethodPost, PathEmails, body), nil
}

// NewBulkOperation encodes a bulk send. Nil entries are rejected with the
// index of the first one.
func NewBulkOperation(reqs []*SendEmailRequest) (Operation, error) {
	if len(reqs) == 0 {
		return Operation{}, NewValidationError("emails", "at least one request is required")
	}

	envelope := BulkEmailRequest{Emails: make([]SendEmailRequest, 0, len(reqs))}
	for i, req := range reqs {
		if req == nil {
			return Operation{}, NewValidationError(fmt.Sprintf("emails[%d]", i), "request is nil")
		}
		envelope.Emails = append(envelope.Emails, req.normalized())
	}

	body, err := encode(envelope)
	if err != nil {
		return Operation{}, err
	}
	return newOperation(OpSendBulk, http.MethodPost, PathEmailsBulk, body), nil
}

// NewHealthOperation builds a health check, which carries no body.
func NewHealthOperation() Operation {
	return newOperation(OpHealthCheck, http.MethodGet, PathHealth, nil)
}

func newOperation(kind OperationKind, method, path string, body []byte) Operation {
	return Operation{
		Kind:      kind,
		Method:    method,
		Path:      path,
		Body:      body,
		RequestID: uuid.NewString(),
	}
}

// encode failures are local and never retried.
func encode(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, &Error{
			Kind:    KindValidation,
			Field:   "data",
			Message: "request payload is not JSON serializable",
			Cause:   err,
		}
	}
	return body, nil
}
