package huefy

import (
	"context"
)

// Public interfaces for the client library
type (
	// Sender defines the email sending interface implemented by Client.
	// All methods are safe for concurrent use.
	Sender interface {
		// Send sends one templated email. It is shorthand for SendEmail.
		Send(ctx context.Context, templateKey, recipient string, data map[string]any) (*SendEmailResponse, error)

		// SendEmail sends one templated email. The request is validated
		// locally before any network attempt.
		SendEmail(ctx context.Context, req *SendEmailRequest) (*SendEmailResponse, error)

		// SendBulk sends many emails in one call. Items rejected by the
		// service are reported in the response, not as an error.
		SendBulk(ctx context.Context, reqs []*SendEmailRequest) (*BulkEmailResponse, error)

		// HealthCheck reports the service health.
		HealthCheck(ctx context.Context) (*HealthResponse, error)

		// Close releases the client's connections.
		// After calling Close, every method fails with ErrClientClosed.
		Close() error
	}
)

var _ Sender = (*Client)(nil)
