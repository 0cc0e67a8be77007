package provider

import (
	"context"
	"errors"
	"time"

	"github.com/harun/quill/internal/metrics"
	"github.com/harun/quill/internal/tracing"
	"github.com/harun/quill/pkg/commandqueue"
	"github.com/rs/zerolog/log"
)

// Lane is the queue lane provider calls run on.
const Lane = "provider"

// DefaultTimeout bounds a call when CompleterConfig.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// CompleterConfig holds the per-call parameters applied to every prompt
type CompleterConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	// WarnAfter logs calls still waiting for a queue slot
	WarnAfter time.Duration
}

// Completer turns a prompt into generated text using one provider.
type Completer struct {
	provider Provider
	queue    *commandqueue.CommandQueue
	cfg      CompleterConfig
	metrics  *metrics.Metrics
}

// NewCompleter creates a completer. A nil queue runs calls on the caller's
// goroutine; a nil metrics records nothing.
func NewCompleter(p Provider, q *commandqueue.CommandQueue, cfg CompleterConfig, m *metrics.Metrics) *Completer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Completer{
		provider: p,
		queue:    q,
		cfg:      cfg,
		metrics:  m,
	}
}

// Provider returns the wrapped backend
func (c *Completer) Provider() Provider {
	return c.provider
}

// Complete sends prompt to the provider and returns its text verbatim.
// Every error is an *Error.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req := Request{
		Prompt:      prompt,
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
	call := func(ctx context.Context) (interface{}, error) {
		return c.provider.Complete(ctx, req)
	}

	logger := tracing.LoggerFromContext(ctx, log.Logger)
	start := time.Now()

	var (
		v   interface{}
		err error
	)
	if c.queue != nil {
		v, err = c.queue.Enqueue(ctx, Lane, call, &commandqueue.TaskOptions{WarnAfter: c.cfg.WarnAfter})
	} else {
		v, err = call(ctx)
	}

	duration := time.Since(start)
	c.metrics.ObserveProviderCall(c.provider.Name(), err, duration)

	if err != nil {
		wrapped := wrap(c.provider.Name(), err)
		logger.Warn().
			Str("provider", c.provider.Name()).
			Dur("duration", duration).
			Bool("timeout", errors.Is(err, context.DeadlineExceeded)).
			Msg("Completion failed")
		return "", wrapped
	}

	resp, ok := v.(*Response)
	if !ok || resp == nil {
		return "", wrap(c.provider.Name(), ErrEmptyResponse)
	}

	logger.Debug().
		Str("provider", c.provider.Name()).
		Str("model", resp.Model).
		Dur("duration", duration).
		Msg("Completion finished")

	return resp.Text, nil
}
