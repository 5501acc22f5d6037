package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmailRequestValidate(t *testing.T) {
	tests := []struct {
		name      string
		req       *SendEmailRequest
		wantField string
	}{
		{
			name: "valid",
			req:  &SendEmailRequest{TemplateKey: "welcome", Recipient: "john@example.com", Data: map[string]any{"name": "John"}},
		},
		{
			name: "valid without data",
			req:  &SendEmailRequest{TemplateKey: "welcome", Recipient: "john@example.com"},
		},
		{
			name:      "nil request",
			req:       nil,
			wantField: "request",
		},
		{
			name:      "empty template key",
			req:       &SendEmailRequest{TemplateKey: "", Recipient: "a@b.com"},
			wantField: "templateKey",
		},
		{
			name:      "whitespace template key",
			req:       &SendEmailRequest{TemplateKey: "   ", Recipient: "a@b.com"},
			wantField: "templateKey",
		},
		{
			name:      "empty recipient",
			req:       &SendEmailRequest{TemplateKey: "welcome", Recipient: " "},
			wantField: "recipient",
		},
		{
			name:      "malformed recipient",
			req:       &SendEmailRequest{TemplateKey: "welcome", Recipient: "invalid-email"},
			wantField: "recipient",
		},
		{
			name:      "unknown provider",
			req:       &SendEmailRequest{TemplateKey: "welcome", Recipient: "a@b.com", Provider: "postmark"},
			wantField: "provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			e, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, KindValidation, e.Kind)
			assert.Equal(t, tt.wantField, e.Field)
		})
	}
}

func TestParseEmailProvider(t *testing.T) {
	p, err := ParseEmailProvider("  SendGrid ")
	require.NoError(t, err)
	assert.Equal(t, ProviderSendGrid, p)

	_, err = ParseEmailProvider("postmark")
	assert.True(t, errors.Is(err, &Error{Kind: KindValidation}))
}

func TestSendOperationRoundTrip(t *testing.T) {
	data := map[string]any{
		"name":  "John Doe",
		"count": float64(3),
		"flags": []any{true, false, nil},
		"company": map[string]any{
			"name":  "Acme",
			"tags":  []any{"a", "b"},
			"score": 4.5,
		},
	}

	op, err := NewSendOperation(&SendEmailRequest{
		TemplateKey: " welcome-email ",
		Recipient:   "john@example.com ",
		Data:        data,
		Provider:    ProviderSES,
	})
	require.NoError(t, err)
	assert.Equal(t, OpSendSingle, op.Kind)
	assert.Equal(t, "POST", op.Method)
	assert.Equal(t, PathEmails, op.Path)
	assert.NotEmpty(t, op.RequestID)

	var decoded SendEmailRequest
	require.NoError(t, json.Unmarshal(op.Body, &decoded))
	assert.Equal(t, "welcome-email", decoded.TemplateKey)
	assert.Equal(t, "john@example.com", decoded.Recipient)
	assert.Equal(t, ProviderSES, decoded.Provider)
	assert.Equal(t, data, decoded.Data)
}

func TestSendOperationOmitsEmptyProvider(t *testing.T) {
	op, err := NewSendOperation(&SendEmailRequest{TemplateKey: "k", Recipient: "a@b.com"})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(op.Body, &raw))
	assert.NotContains(t, raw, "provider")
	assert.Equal(t, map[string]any{}, raw["data"])
}

func TestSendOperationEncodingFailure(t *testing.T) {
	_, err := NewSendOperation(&SendEmailRequest{
		TemplateKey: "k",
		Recipient:   "a@b.com",
		Data:        map[string]any{"bad": make(chan int)},
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.False(t, IsRetryable(err))
}

func TestBulkOperation(t *testing.T) {
	_, err := NewBulkOperation(nil)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = NewBulkOperation([]*SendEmailRequest{{TemplateKey: "k", Recipient: "a@b.com"}, nil})
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "emails[1]", e.Field)

	op, err := NewBulkOperation([]*SendEmailRequest{
		{TemplateKey: "k", Recipient: "a@b.com"},
		{TemplateKey: "k", Recipient: "not-an-address"},
	})
	require.NoError(t, err)
	assert.Equal(t, PathEmailsBulk, op.Path)

	var envelope BulkEmailRequest
	require.NoError(t, json.Unmarshal(op.Body, &envelope))
	require.Len(t, envelope.Emails, 2)
	assert.Equal(t, "not-an-address", envelope.Emails[1].Recipient)
}

func TestPerItemResultUnmarshal(t *testing.T) {
	body := `{"results":[
		{"success":true,"messageId":"msg-1"},
		{"success":true,"result":{"messageId":"msg-2","status":"sent"},"error":null},
		{"success":false,"error":"invalid recipient"},
		{"success":false,"error":{"code":"TEMPLATE_NOT_FOUND","message":"template missing"}}
	]}`

	var resp BulkEmailResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.Len(t, resp.Results, 4)

	assert.Equal(t, PerItemResult{Success: true, MessageID: "msg-1"}, resp.Results[0])
	assert.Equal(t, PerItemResult{Success: true, MessageID: "msg-2"}, resp.Results[1])
	assert.Equal(t, PerItemResult{Success: false, Error: "invalid recipient"}, resp.Results[2])
	assert.Equal(t, PerItemResult{Success: false, Error: "template missing"}, resp.Results[3])
	assert.Equal(t, 2, resp.Succeeded())
	assert.Equal(t, 2, resp.Failed())
}

func TestPerItemResultRejectsMissingItems(t *testing.T) {
	for _, body := range []string{
		`{"results":[{"success":true,"messageId":"a"},null]}`,
		`{"results":[{"success":true,"messageId":"a"},{"messageId":"b"}]}`,
		`{"results":[{}]}`,
	} {
		var resp BulkEmailResponse
		assert.Error(t, json.Unmarshal([]byte(body), &resp), body)
	}

	var item PerItemResult
	assert.Error(t, item.UnmarshalJSON([]byte("null")))
}

func TestErrorMatching(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := error(&Error{Kind: KindNetwork, Message: "network error", Cause: cause})

	assert.True(t, errors.Is(err, &Error{Kind: KindNetwork}))
	assert.False(t, errors.Is(err, &Error{Kind: KindTimeout}))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsRetryable(err))

	server := &Error{Kind: KindProvider, Status: 502}
	assert.True(t, server.Retryable())

	notFound := &Error{Kind: KindTemplateNotFound, Status: 404}
	assert.False(t, notFound.Retryable())
}

func TestRetryAfterDuration(t *testing.T) {
	parsed := &Error{Kind: KindRateLimit, RetryAfter: 5 * time.Second, RetryAfterParsed: true}
	assert.Equal(t, parsed.RetryAfter, GetRetryAfter(parsed))

	defaulted := &Error{Kind: KindRateLimit, RetryAfter: DefaultRetryAfter}
	assert.Zero(t, GetRetryAfter(defaulted))
}
