package toolexecutor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/harun/quill/internal/logger"
	"github.com/harun/quill/internal/metrics"
	"github.com/harun/quill/pkg/auth"
	"github.com/harun/quill/pkg/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "bearer-secret-123"

type harness struct {
	exec    *Executor
	calls   atomic.Int32
	metrics *metrics.Metrics
}

func newHarness(t *testing.T, handler ToolHandler) *harness {
	t.Helper()
	h := &harness{metrics: metrics.NewMetrics()}

	v, err := auth.NewValidator(testSecret)
	require.NoError(t, err)

	redactor := logger.NewRedactor()
	redactor.AddSecret(testSecret)
	redactor.AddSecret("AIzaProviderKey")

	reg := NewRegistry()
	desc := echoDescriptor("echoTone")
	if handler != nil {
		desc.Handler = handler
	}
	inner := desc.Handler
	desc.Handler = func(ctx context.Context, args schema.Arguments) (string, error) {
		h.calls.Add(1)
		return inner(ctx, args)
	}
	require.NoError(t, reg.Register(desc))

	h.exec = NewExecutor(reg, v, WithRedactor(redactor), WithMetrics(h.metrics))
	return h
}

func TestExecutor_EchoRoundTrip(t *testing.T) {
	h := newHarness(t, nil)

	res := h.exec.Execute(context.Background(), InvocationRequest{
		Tool:       "echoTone",
		Arguments:  map[string]interface{}{"draft": "hello"},
		Credential: testSecret,
	})

	require.True(t, res.OK(), "failure: %+v", res.Failure)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, "success", res.Outcome())
	assert.Equal(t, int32(1), h.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ToolInvocationsTotal.WithLabelValues("echoTone", "success")))
}

func TestExecutor_InvalidCredential(t *testing.T) {
	h := newHarness(t, nil)

	for _, token := range []string{"", "wrong", testSecret + " "} {
		res := h.exec.Execute(context.Background(), InvocationRequest{
			Tool:       "echoTone",
			Arguments:  map[string]interface{}{"draft": "hello"},
			Credential: token,
		})
		require.False(t, res.OK())
		assert.Equal(t, KindAuthentication, res.Failure.Kind)
	}
	assert.Equal(t, int32(0), h.calls.Load())
	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.AuthFailuresTotal.WithLabelValues("dispatch")))
}

func TestExecutor_AuthCheckedBeforeLookup(t *testing.T) {
	h := newHarness(t, nil)

	res := h.exec.Execute(context.Background(), InvocationRequest{Tool: "missing", Credential: "wrong"})
	require.False(t, res.OK())
	assert.Equal(t, KindAuthentication, res.Failure.Kind)
}

func TestExecutor_UnknownTool(t *testing.T) {
	h := newHarness(t, nil)

	res := h.exec.Execute(context.Background(), InvocationRequest{
		Tool:       "send_email",
		Arguments:  map[string]interface{}{"draft": "hello"},
		Credential: testSecret,
	})

	require.False(t, res.OK())
	assert.Equal(t, KindUnknownTool, res.Failure.Kind)
	assert.Contains(t, res.Failure.Message, "send_email")
	assert.Equal(t, int32(0), h.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ToolInvocationsTotal.WithLabelValues("_unknown", "unknown_tool")))
}

func TestExecutor_InvalidArguments(t *testing.T) {
	h := newHarness(t, nil)

	res := h.exec.Execute(context.Background(), InvocationRequest{
		Tool:       "echoTone",
		Arguments:  map[string]interface{}{"extra": 1},
		Credential: testSecret,
	})

	require.False(t, res.OK())
	assert.Equal(t, KindInvalidArguments, res.Failure.Kind)
	require.Len(t, res.Failure.Fields, 2)
	assert.Equal(t, schema.FieldError{Field: "draft", Kind: schema.MissingArgument, Message: "required argument is missing"}, res.Failure.Fields[0])
	assert.Equal(t, "extra", res.Failure.Fields[1].Field)
	assert.Equal(t, schema.UnknownArgument, res.Failure.Fields[1].Kind)
	assert.Equal(t, int32(0), h.calls.Load())
}

func TestExecutor_HandlerErrorIsRedacted(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, args schema.Arguments) (string, error) {
		return "", errors.New("upstream said: key AIzaProviderKey rejected for Bearer " + testSecret)
	})

	res := h.exec.Execute(context.Background(), InvocationRequest{
		Tool:       "echoTone",
		Arguments:  map[string]interface{}{"draft": "x"},
		Credential: testSecret,
	})

	require.False(t, res.OK())
	assert.Equal(t, KindInternal, res.Failure.Kind)
	assert.Contains(t, res.Failure.Message, "echoTone failed")
	assert.NotContains(t, res.Failure.Message, "AIzaProviderKey")
	assert.NotContains(t, res.Failure.Message, testSecret)
}

func TestExecutor_HandlerPanicIsContained(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, args schema.Arguments) (string, error) {
		var m map[string]int
		m["boom"] = 1
		return "", nil
	})

	var res InvocationResult
	assert.NotPanics(t, func() {
		res = h.exec.Execute(context.Background(), InvocationRequest{
			Tool:       "echoTone",
			Arguments:  map[string]interface{}{"draft": "x"},
			Credential: testSecret,
		})
	})
	require.False(t, res.OK())
	assert.Equal(t, KindInternal, res.Failure.Kind)
	assert.Contains(t, res.Failure.Message, "handler panicked")
}

func TestExecutor_GrantReachesHandler(t *testing.T) {
	var subject string
	h := newHarness(t, func(ctx context.Context, args schema.Arguments) (string, error) {
		if g := auth.GrantFromContext(ctx); g != nil {
			subject = g.Subject
		}
		return "ok", nil
	})

	res := h.exec.Execute(context.Background(), InvocationRequest{
		Tool:       "echoTone",
		Arguments:  map[string]interface{}{"draft": "x"},
		Credential: testSecret,
	})
	require.True(t, res.OK())
	assert.Equal(t, auth.ClientSubject, subject)
}

func TestExecutor_Authenticate(t *testing.T) {
	h := newHarness(t, nil)

	_, ok := h.exec.Authenticate(testSecret)
	assert.True(t, ok)
	_, ok = h.exec.Authenticate("nope")
	assert.False(t, ok)

	bare := NewExecutor(NewRegistry(), nil)
	_, ok = bare.Authenticate(testSecret)
	assert.False(t, ok)
	assert.NotNil(t, bare.Registry())
}
