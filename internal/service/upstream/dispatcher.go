package upstream

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sasusavage/SourceScout/internal/metrics"
)

// Dispatcher 从有序链中选出第一个已配置的 transport。
type Dispatcher struct {
	chain  []Transport
	logger *zap.Logger
}

// NewDispatcher 按给定顺序组装调度链。
func NewDispatcher(logger *zap.Logger, chain ...Transport) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{chain: chain, logger: logger}
}

// Select 返回第一个配置了凭证的 transport。
func (d *Dispatcher) Select() (Transport, error) {
	for _, t := range d.chain {
		if t != nil && t.Configured() {
			return t, nil
		}
	}
	return nil, ErrNoCredential
}

// Ready 表示链上是否有可用的 transport。
func (d *Dispatcher) Ready() bool {
	_, err := d.Select()
	return err == nil
}

// Complete 通过选中的 transport 发送请求，不做重试。
func (d *Dispatcher) Complete(ctx context.Context, req Request) (*Completion, error) {
	transport, err := d.Select()
	if err != nil {
		return nil, err
	}

	provider := transport.Name()
	start := time.Now()
	completion, err := transport.Complete(ctx, req)
	metrics.UpstreamDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(provider, outcome(err)).Inc()
		d.logFailure(provider, req.Model, err)
		return nil, err
	}

	metrics.UpstreamRequests.WithLabelValues(provider, "ok").Inc()
	d.logger.Debug("upstream completion succeeded",
		zap.String("provider", provider),
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return completion, nil
}

func (d *Dispatcher) logFailure(provider, model string, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		d.logger.Error("chat completion http error",
			zap.String("provider", provider),
			zap.String("model", model),
			zap.Int("status", httpErr.StatusCode),
			zap.Any("details", httpErr.Details),
		)
		return
	}
	d.logger.Error("chat completion request failed",
		zap.String("provider", provider),
		zap.String("model", model),
		zap.Error(err),
	)
}

func outcome(err error) string {
	var httpErr *HTTPError
	var transportErr *TransportError
	switch {
	case errors.As(err, &httpErr):
		return "http_error"
	case errors.As(err, &transportErr):
		return "transport_error"
	default:
		return "error"
	}
}
