// Package bulk packages many send requests into a single call and unpacks the
// per-item results.
package bulk

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/teracrafts/huefy-go/internal/core"
)

// Executor runs one operation with retries and returns the raw success body.
type Executor interface {
	Execute(ctx context.Context, op core.Operation) ([]byte, error)
}

// Coordinator sends bulk batches. The whole batch is one operation, so a
// transient failure retries every item together.
type Coordinator struct {
	executor Executor
	logger   *zap.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(executor Executor, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{executor: executor, logger: logger}
}

// Send submits reqs as one batch. Item failures reported by the service are
// returned in the results, not as an error. Results keep submission order.
func (c *Coordinator) Send(ctx context.Context, reqs []*core.SendEmailRequest) (*core.BulkEmailResponse, error) {
	op, err := core.NewBulkOperation(reqs)
	if err != nil {
		return nil, err
	}

	body, err := c.executor.Execute(ctx, op)
	if err != nil {
		return nil, err
	}

	var resp core.BulkEmailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &core.Error{
			Kind:    core.KindProtocol,
			Message: "failed to decode bulk response",
			Body:    body,
			Cause:   err,
		}
	}

	if len(resp.Results) != len(reqs) {
		return nil, &core.Error{
			Kind:    core.KindProtocol,
			Message: fmt.Sprintf("bulk response has %d results for %d requests", len(resp.Results), len(reqs)),
			Body:    body,
		}
	}

	c.logger.Debug("bulk batch sent",
		zap.String("request_id", op.RequestID),
		zap.Int("size", len(reqs)),
		zap.Int("succeeded", resp.Succeeded()),
		zap.Int("failed", resp.Failed()),
	)

	return &resp, nil
}
