// Package executor runs one logical operation against the service, retrying
// transient failures until success, a permanent failure, an exhausted retry
// budget, or cancellation.
package executor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/teracrafts/huefy-go/internal/classify"
	"github.com/teracrafts/huefy-go/internal/core"
	"github.com/teracrafts/huefy-go/internal/retry"
	"github.com/teracrafts/huefy-go/internal/transport"
)

// Observer receives attempt-level events, e.g. for metrics.
type Observer interface {
	// ObserveAttempt is called after every transport attempt. err is nil on success.
	ObserveAttempt(op core.OperationKind, attempt int, err *core.Error)

	// ObserveRetry is called when a retry has been scheduled.
	ObserveRetry(op core.OperationKind, kind core.ErrorKind, delay time.Duration)

	// ObserveResult is called once per operation with its terminal result.
	ObserveResult(op core.OperationKind, attempts int, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveAttempt(core.OperationKind, int, *core.Error)            {}
func (nopObserver) ObserveRetry(core.OperationKind, core.ErrorKind, time.Duration) {}
func (nopObserver) ObserveResult(core.OperationKind, int, time.Duration, error)    {}

// Options configures an Executor.
type Options struct {
	// Transport performs single attempts. Required.
	Transport transport.Transport

	// Retry is the shared retry policy.
	Retry retry.Config

	// Header is sent with every attempt (API key, user agent, content type).
	Header http.Header

	// Timeout bounds each attempt and is passed to the transport with every
	// request. Zero leaves it to the transport.
	Timeout time.Duration

	Logger   *zap.Logger
	Observer Observer

	// Sleep waits between attempts. Defaults to retry.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Executor is safe for concurrent use; each Execute call keeps its attempt
// counter and timer local.
type Executor struct {
	transport transport.Transport
	retry     retry.Config
	header    http.Header
	timeout   time.Duration
	logger    *zap.Logger
	observer  Observer
	sleep     func(ctx context.Context, d time.Duration) error
}

// New creates an Executor.
func New(opts Options) *Executor {
	e := &Executor{
		transport: opts.Transport,
		retry:     opts.Retry,
		header:    opts.Header.Clone(),
		timeout:   opts.Timeout,
		logger:    opts.Logger,
		observer:  opts.Observer,
		sleep:     opts.Sleep,
	}
	if e.header == nil {
		e.header = http.Header{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	if e.sleep == nil {
		e.sleep = retry.Sleep
	}
	return e
}

// Execute performs op and returns the raw success body. At most
// Retry.MaxRetries+1 attempts are made.
func (e *Executor) Execute(ctx context.Context, op core.Operation) ([]byte, error) {
	start := time.Now()
	span := trace.SpanFromContext(ctx)

	header := e.header.Clone()
	header.Set("X-Request-ID", op.RequestID)
	req := transport.Request{
		Method:  op.Method,
		Path:    op.Path,
		Header:  header,
		Body:    op.Body,
		Timeout: e.timeout,
	}

	log := e.logger.With(
		zap.String("operation", string(op.Kind)),
		zap.String("request_id", op.RequestID),
	)

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, e.finish(op, start, interrupted(err, attempt))
		}

		out := e.transport.Send(ctx, req)

		// The caller went away while the attempt was in flight; its result is stale.
		if err := ctx.Err(); err != nil {
			return nil, e.finish(op, start, interrupted(err, attempt+1))
		}

		failure := classify.Classify(out)

		span.AddEvent("huefy.attempt", trace.WithAttributes(
			attribute.Int("huefy.attempt", attempt+1),
			attribute.String("huefy.outcome", out.Kind.String()),
			attribute.Int("http.status_code", out.Status),
		))

		if failure == nil {
			log.Debug("attempt succeeded", zap.Int("attempt", attempt+1), zap.Int("status", out.Status))
			e.observer.ObserveAttempt(op.Kind, attempt, nil)
			e.observer.ObserveResult(op.Kind, attempt+1, time.Since(start), nil)
			return out.Body, nil
		}

		failure.Attempts = attempt + 1
		e.observer.ObserveAttempt(op.Kind, attempt, failure)

		decision := retry.ShouldRetry(attempt, failure, e.retry)
		if !decision.Retry {
			log.Debug("attempt failed",
				zap.Int("attempt", attempt+1),
				zap.String("kind", string(failure.Kind)),
				zap.Int("status", failure.Status),
			)
			return nil, e.finish(op, start, failure)
		}

		log.Warn("attempt failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", e.retry.MaxRetries),
			zap.String("kind", string(failure.Kind)),
			zap.Duration("delay", decision.Delay),
			zap.Error(failure),
		)
		e.observer.ObserveRetry(op.Kind, failure.Kind, decision.Delay)

		if err := e.sleep(ctx, decision.Delay); err != nil {
			return nil, e.finish(op, start, interrupted(err, attempt+1))
		}
	}
}

func (e *Executor) finish(op core.Operation, start time.Time, err *core.Error) error {
	e.observer.ObserveResult(op.Kind, err.Attempts, time.Since(start), err)
	return err
}

// interrupted converts a context error into a typed error.
func interrupted(ctxErr error, attempts int) *core.Error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return &core.Error{Kind: core.KindTimeout, Message: "operation deadline exceeded", Attempts: attempts, Cause: ctxErr}
	}
	return &core.Error{Kind: core.KindCanceled, Message: "operation canceled", Attempts: attempts, Cause: ctxErr}
}
