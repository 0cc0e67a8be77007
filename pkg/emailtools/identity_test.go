package emailtools

import (
	"context"
	"testing"

	"github.com/harun/quill/pkg/toolexecutor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdentity(t *testing.T) {
	assert.Equal(t, "919876543210", NormalizeIdentity("+919876543210"))
	assert.Equal(t, "919876543210", NormalizeIdentity("++919876543210"))
	assert.Equal(t, "919876543210", NormalizeIdentity("919876543210"))
	assert.Equal(t, "", NormalizeIdentity(""))
	assert.Equal(t, "91+98", NormalizeIdentity("+91+98"))
}

func TestValidateTool(t *testing.T) {
	stub := &stubCompleter{}

	t.Run("returns identity without plus", func(t *testing.T) {
		res := call(newExecutor(t, stub, "+15551234567"), IdentityToolName, nil)
		require.True(t, res.OK())
		assert.Equal(t, "15551234567", res.Text)
	})

	t.Run("unset identity", func(t *testing.T) {
		res := call(newExecutor(t, stub, ""), IdentityToolName, map[string]interface{}{})
		require.True(t, res.OK())
		assert.Equal(t, "", res.Text)
	})

	t.Run("requires a valid token", func(t *testing.T) {
		e := newExecutor(t, stub, "+15551234567")
		res := e.Execute(context.Background(), toolexecutor.InvocationRequest{Tool: IdentityToolName, Credential: "wrong"})
		require.False(t, res.OK())
		assert.Equal(t, toolexecutor.KindAuthentication, res.Failure.Kind)
	})

	t.Run("rejects arguments", func(t *testing.T) {
		res := call(newExecutor(t, stub, "+1"), IdentityToolName, map[string]interface{}{"x": 1})
		require.False(t, res.OK())
		assert.Equal(t, toolexecutor.KindInvalidArguments, res.Failure.Kind)
	})

	t.Run("rejects unknown null argument", func(t *testing.T) {
		res := call(newExecutor(t, stub, "+1"), IdentityToolName, map[string]interface{}{"x": nil})
		require.False(t, res.OK())
		assert.Equal(t, toolexecutor.KindInvalidArguments, res.Failure.Kind)
	})

	assert.Equal(t, 0, stub.calls())
}
