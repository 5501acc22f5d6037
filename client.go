package huefy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/teracrafts/huefy-go/internal/bulk"
	"github.com/teracrafts/huefy-go/internal/core"
	"github.com/teracrafts/huefy-go/internal/executor"
	"github.com/teracrafts/huefy-go/internal/transport"
)

// Type aliases to re-export core types for the public API.
type (
	EmailProvider     = core.EmailProvider
	SendEmailRequest  = core.SendEmailRequest
	SendEmailResponse = core.SendEmailResponse
	BulkEmailResponse = core.BulkEmailResponse
	PerItemResult     = core.PerItemResult
	HealthResponse    = core.HealthResponse
)

// Provider constants
const (
	ProviderSES       = core.ProviderSES
	ProviderSendGrid  = core.ProviderSendGrid
	ProviderMailgun   = core.ProviderMailgun
	ProviderMailchimp = core.ProviderMailchimp
)

// ParseEmailProvider converts a case-insensitive provider name.
var ParseEmailProvider = core.ParseEmailProvider

// Transport types, for plugging in a custom transport with WithTransport.
type (
	Transport        = transport.Transport
	TransportRequest = transport.Request
	TransportFunc    = transport.Func
	Outcome          = transport.Outcome
)

// Outcome constructors for custom transports.
var (
	SuccessOutcome          = transport.Success
	HTTPFailureOutcome      = transport.HTTPFailure
	TransportFailureOutcome = transport.TransportFailure
)

// Client sends templated emails through the service.
// All methods are safe for concurrent use.
type Client struct {
	config    Config
	transport Transport
	ownsConn  bool
	executor  *executor.Executor
	bulk      *bulk.Coordinator
	logger    *zap.Logger
	tracer    trace.Tracer
	mu        sync.RWMutex
	closed    bool
}

// New creates a new client with the given configuration.
// The client must be closed when no longer needed to release its connections.
func New(config Config, opts ...Option) (*Client, error) {
	// Apply functional options
	for _, opt := range opts {
		opt(&config)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("huefy")

	client := &Client{
		config:    config,
		transport: config.Transport,
		logger:    logger,
		tracer:    newTracer(config),
	}

	if client.transport == nil {
		client.transport = transport.NewHTTP(transport.HTTPConfig{
			BaseURL:             config.Endpoint(),
			ConnectTimeout:      config.ConnectTimeout,
			ReadTimeout:         config.ReadTimeout,
			MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		})
		client.ownsConn = true
	}

	var observer executor.Observer
	if config.Registerer != nil {
		m, err := newMetrics(config.Registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		observer = m
	}

	header := http.Header{}
	header.Set("X-API-Key", strings.TrimSpace(config.APIKey))
	header.Set("User-Agent", UserAgent())
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")

	client.executor = executor.New(executor.Options{
		Transport: client.transport,
		Retry:     config.Retry.policy(),
		Header:    header,
		Timeout:   config.ConnectTimeout + config.ReadTimeout,
		Logger:    logger,
		Observer:  observer,
	})
	client.bulk = bulk.NewCoordinator(client.executor, logger)

	logger.Debug("client created",
		zap.String("endpoint", config.Endpoint()),
		zap.Bool("retry", config.Retry.Enabled),
		zap.Int("max_retries", config.Retry.MaxRetries),
	)

	return client, nil
}

func newTracer(config Config) trace.Tracer {
	if !config.Tracing.Enabled {
		return noop.NewTracerProvider().Tracer(modulePath)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(modulePath, trace.WithInstrumentationVersion(Version))
}

// Send sends one templated email to recipient.
func (c *Client) Send(ctx context.Context, templateKey, recipient string, data map[string]any) (*SendEmailResponse, error) {
	return c.SendEmail(ctx, &SendEmailRequest{
		TemplateKey: templateKey,
		Recipient:   recipient,
		Data:        data,
	})
}

// SendEmail sends a single email.
func (c *Client) SendEmail(ctx context.Context, req *SendEmailRequest) (*SendEmailResponse, error) {
	ctx, span := c.tracer.Start(ctx, "huefy.Client.SendEmail")
	defer span.End()

	if err := c.checkOpen(span); err != nil {
		return nil, err
	}

	// Validate request
	if err := req.Validate(); err != nil {
		recordFailure(span, err, "validation failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("huefy.template_key", req.TemplateKey),
		attribute.String("huefy.provider", req.Provider.String()),
	)

	op, err := core.NewSendOperation(req)
	if err != nil {
		recordFailure(span, err, "validation failed")
		return nil, err
	}

	body, err := c.executor.Execute(ctx, op)
	if err != nil {
		recordFailure(span, err, "send failed")
		return nil, err
	}

	var resp SendEmailResponse
	if err := decode(body, &resp); err != nil {
		recordFailure(span, err, "unexpected response")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("huefy.message_id", resp.MessageID),
		attribute.String("huefy.status", resp.Status),
	)
	span.SetStatus(codes.Ok, "email sent successfully")

	return &resp, nil
}

// SendBulk sends multiple emails as one batch. A transient failure retries
// the whole batch. Items the service rejects are reported per item in the
// response, in submission order.
func (c *Client) SendBulk(ctx context.Context, reqs []*SendEmailRequest) (*BulkEmailResponse, error) {
	ctx, span := c.tracer.Start(ctx, "huefy.Client.SendBulk")
	defer span.End()

	if err := c.checkOpen(span); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("huefy.batch.size", len(reqs)))

	resp, err := c.bulk.Send(ctx, reqs)
	if err != nil {
		recordFailure(span, err, "batch send failed")
		return nil, err
	}

	succeeded, failed := resp.Succeeded(), resp.Failed()
	span.SetAttributes(
		attribute.Int("huefy.batch.success_count", succeeded),
		attribute.Int("huefy.batch.failure_count", failed),
	)
	span.SetStatus(codes.Ok, fmt.Sprintf("%d/%d emails accepted", succeeded, len(reqs)))

	return resp, nil
}

// HealthCheck reports the service health.
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	ctx, span := c.tracer.Start(ctx, "huefy.Client.HealthCheck")
	defer span.End()

	if err := c.checkOpen(span); err != nil {
		return nil, err
	}

	body, err := c.executor.Execute(ctx, core.NewHealthOperation())
	if err != nil {
		recordFailure(span, err, "health check failed")
		return nil, err
	}

	var resp HealthResponse
	if err := decode(body, &resp); err != nil {
		recordFailure(span, err, "unexpected response")
		return nil, err
	}

	span.SetAttributes(attribute.String("huefy.health.status", resp.Status))
	span.SetStatus(codes.Ok, "health check completed")

	return &resp, nil
}

// Close releases the client's connections. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	c.logger.Debug("client closed")

	if !c.ownsConn {
		return nil
	}
	if closer, ok := c.transport.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}

	return nil
}

func (c *Client) checkOpen(span trace.Span) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		span.RecordError(ErrClientClosed)
		span.SetStatus(codes.Error, ErrClientClosed.Error())
		return ErrClientClosed
	}
	return nil
}

func recordFailure(span trace.Span, err error, status string) {
	if e, ok := core.AsError(err); ok {
		span.SetAttributes(
			attribute.String("huefy.error.kind", string(e.Kind)),
			attribute.Int("huefy.attempts", e.Attempts),
		)
		if e.Status > 0 {
			span.SetAttributes(attribute.Int("http.status_code", e.Status))
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
}

// decode parses a success body. A body that does not decode is reported as
// a protocol error, never retried.
func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &Error{
			Kind:    KindProtocol,
			Message: "failed to decode response body",
			Body:    body,
			Cause:   err,
		}
	}
	return nil
}
