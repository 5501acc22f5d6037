package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransportSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/emails", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"templateKey":"welcome"}`, string(body))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"msg-123"}`))
	}))
	defer server.Close()

	tr := NewHTTP(HTTPConfig{BaseURL: server.URL + "/", ConnectTimeout: time.Second, ReadTimeout: time.Second})
	defer tr.Close()

	out := tr.Send(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/v1/emails",
		Header: http.Header{"X-Api-Key": []string{"test-key"}},
		Body:   []byte(`{"templateKey":"welcome"}`),
	})

	assert.Equal(t, OutcomeSuccess, out.Kind)
	assert.Equal(t, http.StatusCreated, out.Status)
	assert.JSONEq(t, `{"messageId":"msg-123"}`, string(out.Body))
}

func TestHTTPTransportErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":"RATE_LIMIT_EXCEEDED"}}`))
	}))
	defer server.Close()

	tr := NewHTTP(HTTPConfig{BaseURL: server.URL, ConnectTimeout: time.Second, ReadTimeout: time.Second})
	out := tr.Send(context.Background(), Request{Method: http.MethodGet, Path: "/v1/health"})

	assert.Equal(t, OutcomeHTTPFailure, out.Kind)
	assert.Equal(t, http.StatusTooManyRequests, out.Status)
	assert.Equal(t, "5", out.Header.Get("Retry-After"))
	assert.Contains(t, string(out.Body), "RATE_LIMIT_EXCEEDED")
}

func TestHTTPTransportConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	tr := NewHTTP(HTTPConfig{BaseURL: url, ConnectTimeout: time.Second, ReadTimeout: time.Second})
	out := tr.Send(context.Background(), Request{Method: http.MethodGet, Path: "/v1/health"})

	assert.Equal(t, OutcomeTransportFailure, out.Kind)
	assert.False(t, out.Timeout)
	require.Error(t, out.Cause)
}

func TestHTTPTransportReadTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	tr := NewHTTP(HTTPConfig{BaseURL: server.URL, ConnectTimeout: time.Second, ReadTimeout: 50 * time.Millisecond})
	out := tr.Send(context.Background(), Request{Method: http.MethodGet, Path: "/v1/health"})

	assert.Equal(t, OutcomeTransportFailure, out.Kind)
	assert.True(t, out.Timeout)
}

func TestFromResponse(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, FromResponse(200, nil, nil).Kind)
	assert.Equal(t, OutcomeSuccess, FromResponse(304, nil, nil).Kind)
	assert.Equal(t, OutcomeHTTPFailure, FromResponse(400, nil, nil).Kind)
	assert.Equal(t, OutcomeHTTPFailure, FromResponse(503, nil, nil).Kind)
}
