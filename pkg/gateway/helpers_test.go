package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/harun/quill/internal/logger"
	"github.com/harun/quill/internal/metrics"
	"github.com/harun/quill/pkg/auth"
	"github.com/harun/quill/pkg/schema"
	"github.com/harun/quill/pkg/toolexecutor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testToken = "gateway-test-token"

func newTestExecutor(t *testing.T, m *metrics.Metrics) *toolexecutor.Executor {
	t.Helper()

	v, err := auth.NewValidator(testToken)
	require.NoError(t, err)

	redactor := logger.NewRedactor()
	redactor.AddSecret(testToken)

	reg := toolexecutor.NewRegistry()
	reg.MustRegister(
		toolexecutor.ToolDescriptor{
			Name:        "echo",
			Description: "Echoes text back.",
			UseWhen:     "Testing the transport.",
			SideEffects: "None.",
			Schema: schema.MustNew(schema.ParameterSpec{
				Name: "text", Type: schema.TypeString, Description: "Text to echo.", Required: true,
			}),
			Handler: func(ctx context.Context, args schema.Arguments) (string, error) {
				return args.String("text"), nil
			},
		},
		toolexecutor.ToolDescriptor{
			Name:        "leak",
			Description: "Fails with the credential in its error.",
			Schema:      schema.MustNew(),
			Handler: func(ctx context.Context, args schema.Arguments) (string, error) {
				return "", errors.New("upstream rejected " + testToken)
			},
		},
	)

	return toolexecutor.NewExecutor(reg, v,
		toolexecutor.WithRedactor(redactor),
		toolexecutor.WithMetrics(m),
	)
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	return NewDispatcher(newTestExecutor(t, nil), nil, ServerInfo{Name: "quill", Version: "test"}, zerolog.Nop())
}
