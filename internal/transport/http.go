package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// HTTPConfig configures HTTPTransport.
type HTTPConfig struct {
	// BaseURL is prefixed to every request path.
	BaseURL string

	// ConnectTimeout bounds dialing and the TLS handshake.
	ConnectTimeout time.Duration

	// ReadTimeout bounds waiting for the response headers and body.
	ReadTimeout time.Duration

	// MaxIdleConnsPerHost limits pooled connections to the service.
	MaxIdleConnsPerHost int
}

// HTTPTransport sends attempts over net/http with a pooled client.
type HTTPTransport struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewHTTP creates an HTTP transport.
func NewHTTP(cfg HTTPConfig) *HTTPTransport {
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 10
	}

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	return &HTTPTransport{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.ConnectTimeout + cfg.ReadTimeout,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   cfg.ConnectTimeout,
				ResponseHeaderTimeout: cfg.ReadTimeout,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// Send performs one HTTP round trip.
func (t *HTTPTransport) Send(ctx context.Context, req Request) Outcome {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = t.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.baseURL+req.Path, body)
	if err != nil {
		return TransportFailure(fmt.Errorf("create request: %w", err), false)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return TransportFailure(err, isTimeout(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return TransportFailure(fmt.Errorf("read response: %w", err), isTimeout(err))
	}

	return FromResponse(resp.StatusCode, resp.Header, data)
}

// Close releases idle pooled connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
