package toolexecutor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harun/quill/internal/metrics"
	"github.com/harun/quill/internal/tracing"
	"github.com/harun/quill/pkg/auth"
	"github.com/harun/quill/pkg/schema"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
)

// CredentialValidator checks a presented bearer token
type CredentialValidator interface {
	Validate(token string) (*auth.AccessGrant, bool)
}

// Redactor scrubs secrets from text leaving the process
type Redactor interface {
	Redact(s string) string
}

// Executor authenticates, validates and runs tool calls
type Executor struct {
	registry  *Registry
	validator CredentialValidator
	redactor  Redactor
	metrics   *metrics.Metrics
}

// Option configures an Executor
type Option func(*Executor)

// WithRedactor applies r to every failure message
func WithRedactor(r Redactor) Option {
	return func(e *Executor) { e.redactor = r }
}

// WithMetrics records invocations in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// NewExecutor creates an executor over reg
func NewExecutor(reg *Registry, validator CredentialValidator, opts ...Option) *Executor {
	e := &Executor{
		registry:  reg,
		validator: validator,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the tool registry
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Authenticate validates token without invoking anything. Transports use
// it for methods other than tools/call.
func (e *Executor) Authenticate(token string) (*auth.AccessGrant, bool) {
	if e.validator == nil {
		return nil, false
	}
	return e.validator.Validate(token)
}

// Execute runs one invocation. It never panics and never returns an
// error; every outcome is encoded in the result.
func (e *Executor) Execute(ctx context.Context, req InvocationRequest) InvocationResult {
	start := time.Now()
	ctx = tracing.WithTool(tracing.EnsureTraceID(ctx), req.Tool)
	logger := tracing.LoggerFromContext(ctx, log.Logger)

	result := e.execute(ctx, req)
	result.Duration = time.Since(start)

	e.metrics.ObserveToolInvocation(metricsToolLabel(e.registry, req.Tool), result.Outcome(), result.Duration)

	event := logger.Info()
	if !result.OK() {
		event = logger.Warn().Str("error", result.Failure.Message)
	}
	event.
		Str("outcome", result.Outcome()).
		Dur("duration", result.Duration).
		Msg("Tool invocation")

	return result
}

func (e *Executor) execute(ctx context.Context, req InvocationRequest) InvocationResult {
	grant, ok := e.Authenticate(req.Credential)
	if !ok {
		e.metrics.AuthFailure("dispatch")
		return failure(KindAuthentication, "invalid or missing bearer token", nil)
	}

	tool, err := e.registry.Lookup(req.Tool)
	if err != nil {
		return failure(KindUnknownTool, fmt.Sprintf("unknown tool: %s", req.Tool), nil)
	}

	if !grant.HasScope(tool.Name) {
		return failure(KindAuthentication, fmt.Sprintf("credential does not grant access to %s", tool.Name), nil)
	}

	args, err := tool.Schema.Validate(req.Arguments)
	if err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			return failure(KindInvalidArguments, ve.Error(), ve.Fields)
		}
		return failure(KindInternal, e.redact(err.Error()), nil)
	}

	text, err := e.invoke(auth.WithGrant(ctx, grant), tool, args)
	if err != nil {
		return failure(KindInternal, e.redact(fmt.Sprintf("%s failed: %v", tool.Name, err)), nil)
	}
	return success(text)
}

// invoke runs the handler, turning a panic into an error
func (e *Executor) invoke(ctx context.Context, tool ToolDescriptor, args schema.Arguments) (text string, err error) {
	var pc panics.Catcher
	pc.Try(func() {
		text, err = tool.Handler(ctx, args)
	})
	if rec := pc.Recovered(); rec != nil {
		logger := tracing.LoggerFromContext(ctx, log.Logger)
		logger.Error().
			Str("panic", e.redact(fmt.Sprint(rec.Value))).
			Bytes("stack", rec.Stack).
			Msg("Tool handler panicked")
		return "", errors.New("handler panicked")
	}
	return text, err
}

func (e *Executor) redact(s string) string {
	if e.redactor == nil {
		return s
	}
	return e.redactor.Redact(s)
}

// metricsToolLabel keeps label cardinality bounded: unknown names share
// one label.
func metricsToolLabel(reg *Registry, name string) string {
	if _, err := reg.Lookup(name); err != nil {
		return "_unknown"
	}
	return name
}
