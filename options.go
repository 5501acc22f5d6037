package huefy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(c *Config) {
		c.APIKey = apiKey
	}
}

// WithBaseURL sets the service endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.BaseURL = baseURL
	}
}

// WithLocal points the client at a service running on localhost.
func WithLocal() Option {
	return func(c *Config) {
		c.Local = true
	}
}

// WithTimeouts sets the per-attempt connect and read timeouts.
func WithTimeouts(connect, read time.Duration) Option {
	return func(c *Config) {
		c.ConnectTimeout = connect
		c.ReadTimeout = read
	}
}

// WithMaxIdleConnsPerHost sets the size of the idle connection pool.
func WithMaxIdleConnsPerHost(n int) Option {
	return func(c *Config) {
		c.MaxIdleConnsPerHost = n
	}
}

// WithRetry configures retry behavior.
func WithRetry(maxRetries int, backoffFactor, maxDelay time.Duration) Option {
	return func(c *Config) {
		c.Retry.Enabled = true
		c.Retry.MaxRetries = maxRetries
		c.Retry.BackoffFactor = backoffFactor
		c.Retry.MaxDelay = maxDelay
	}
}

// WithJitter enables or disables jitter in retry delays.
func WithJitter(enabled bool) Option {
	return func(c *Config) {
		c.Retry.Jitter = enabled
	}
}

// WithoutRetry disables retry functionality.
func WithoutRetry() Option {
	return func(c *Config) {
		c.Retry.Enabled = false
	}
}

// WithTracing enables distributed tracing.
func WithTracing() Option {
	return func(c *Config) {
		c.Tracing.Enabled = true
	}
}

// WithTracerProvider enables tracing with spans from tp instead of the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.Tracing.Enabled = true
		c.TracerProvider = tp
	}
}

// WithoutTracing disables distributed tracing.
func WithoutTracing() Option {
	return func(c *Config) {
		c.Tracing.Enabled = false
	}
}

// WithLogger sets the logger. The client logs nothing by default.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics registers the client's collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registerer = reg
	}
}

// WithTransport replaces the HTTP transport, e.g. in tests.
func WithTransport(t Transport) Option {
	return func(c *Config) {
		c.Transport = t
	}
}
