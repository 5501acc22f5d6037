package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/text/cases"
)

// EmailProvider identifies the downstream delivery service the remote
// service should route a message through.
type EmailProvider string

const (
	// ProviderSES represents Amazon Simple Email Service.
	ProviderSES EmailProvider = "ses"

	// ProviderSendGrid represents the SendGrid email service.
	ProviderSendGrid EmailProvider = "sendgrid"

	// ProviderMailgun represents the Mailgun email service.
	ProviderMailgun EmailProvider = "mailgun"

	// ProviderMailchimp represents Mailchimp Transactional.
	ProviderMailchimp EmailProvider = "mailchimp"
)

// String returns the wire representation of the provider.
func (p EmailProvider) String() string {
	return string(p)
}

// Valid checks if the provider is one the service accepts.
func (p EmailProvider) Valid() bool {
	switch p {
	case ProviderSES, ProviderSendGrid, ProviderMailgun, ProviderMailchimp:
		return true
	default:
		return false
	}
}

// ParseEmailProvider converts a case-insensitive provider name into an
// EmailProvider.
func ParseEmailProvider(name string) (EmailProvider, error) {
	p := EmailProvider(cases.Fold().String(strings.TrimSpace(name)))
	if !p.Valid() {
		return "", NewValidationErrorWithValue("provider", "unsupported email provider", name)
	}
	return p, nil
}

// SendEmailRequest asks the service to render a template and deliver it to
// one recipient.
type SendEmailRequest struct {
	// TemplateKey is the key of the template stored in the service.
	TemplateKey string `json:"templateKey"`

	// Recipient is the destination email address.
	Recipient string `json:"recipient"`

	// Data holds the template variables. A nil map is sent as an empty object.
	Data map[string]any `json:"data"`

	// Provider optionally pins the delivery provider.
	Provider EmailProvider `json:"provider,omitempty"`
}

// Validate checks the request before any network attempt is made.
func (r *SendEmailRequest) Validate() error {
	if r == nil {
		return NewValidationError("request", "request is nil")
	}

	if strings.TrimSpace(r.TemplateKey) == "" {
		return NewValidationError("templateKey", "template key is required")
	}

	recipient := strings.TrimSpace(r.Recipient)
	if recipient == "" {
		return NewValidationError("recipient", "recipient is required")
	}
	if _, err := mail.ParseAddress(recipient); err != nil {
		return NewValidationErrorWithValue("recipient", "invalid email address", recipient)
	}

	if r.Provider != "" && !r.Provider.Valid() {
		return NewValidationErrorWithValue("provider", "unsupported email provider", string(r.Provider))
	}

	return nil
}

// normalized returns the wire form of the request with trimmed identifiers.
func (r *SendEmailRequest) normalized() SendEmailRequest {
	data := r.Data
	if data == nil {
		data = map[string]any{}
	}
	return SendEmailRequest{
		TemplateKey: strings.TrimSpace(r.TemplateKey),
		Recipient:   strings.TrimSpace(r.Recipient),
		Data:        data,
		Provider:    r.Provider,
	}
}

// SendEmailResponse is returned by the service for an accepted single send.
type SendEmailResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
	Provider  string `json:"provider"`
	Timestamp string `json:"timestamp"`
}

// BulkEmailRequest is the envelope for a bulk send.
type BulkEmailRequest struct {
	Emails []SendEmailRequest `json:"emails"`
}

// BulkEmailResponse holds one result per submitted request, in submission order.
type BulkEmailResponse struct {
	Results []PerItemResult `json:"results"`
}

// Succeeded returns the number of items the service accepted.
func (r *BulkEmailResponse) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of items the service rejected.
func (r *BulkEmailResponse) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// PerItemResult is the outcome of a single item within a bulk send.
type PerItemResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// UnmarshalJSON accepts both the flat item form and the nested form where the
// message id lives under "result" and the error is an object. A null item or
// one without "success" is rejected, never read as a failure.
func (p *PerItemResult) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return errors.New("bulk result item is null")
	}

	var raw struct {
		Success   *bool  `json:"success"`
		MessageID string `json:"messageId"`
		Result    *struct {
			MessageID string `json:"messageId"`
		} `json:"result"`
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Success == nil {
		return errors.New("bulk result item has no success field")
	}

	p.Success = *raw.Success
	p.MessageID = raw.MessageID
	if p.MessageID == "" && raw.Result != nil {
		p.MessageID = raw.Result.MessageID
	}

	p.Error = ""
	if len(raw.Error) == 0 || string(raw.Error) == "null" {
		return nil
	}

	var msg string
	if err := json.Unmarshal(raw.Error, &msg); err == nil {
		p.Error = msg
		return nil
	}

	var obj struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw.Error, &obj); err != nil {
		return err
	}
	p.Error = obj.Message
	if p.Error == "" {
		p.Error = obj.Code
	}
	return nil
}

// HealthResponse reports the service health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version,omitempty"`
}

// Healthy reports whether the service considers itself healthy.
func (h *HealthResponse) Healthy() bool {
	return strings.EqualFold(h.Status, "healthy") || strings.EqualFold(h.Status, "ok")
}
