package emailtools

import (
	"context"
	"strings"

	"github.com/harun/quill/pkg/schema"
	"github.com/harun/quill/pkg/toolexecutor"
)

// IdentityToolName is reserved for the host platform's ownership check.
const IdentityToolName = "validate"

// NormalizeIdentity strips every leading '+' from a phone number.
func NormalizeIdentity(number string) string {
	return strings.TrimLeft(number, "+")
}

// IdentityTool returns the validate tool, which reports the configured
// identity. It takes no arguments and still requires a valid token.
func IdentityTool(number string) toolexecutor.ToolDescriptor {
	value := NormalizeIdentity(number)
	return toolexecutor.ToolDescriptor{
		Name:        IdentityToolName,
		Description: "Returns the server owner's phone number for ownership validation.",
		UseWhen:     "The host platform verifies which user this server belongs to.",
		Schema:      schema.MustNew(),
		Handler: func(ctx context.Context, _ schema.Arguments) (string, error) {
			return value, nil
		},
	}
}
