package toolexecutor

import (
	"context"
	"time"

	"github.com/harun/quill/pkg/schema"
)

// ToolHandler is the function signature for tool execution. It receives
// validated arguments and returns the text shown to the caller.
type ToolHandler func(ctx context.Context, args schema.Arguments) (string, error)

// ToolDescriptor defines a tool's metadata and handler
type ToolDescriptor struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description" yaml:"description"`
	UseWhen     string             `json:"use_when,omitempty" yaml:"use_when,omitempty"`
	SideEffects string             `json:"side_effects,omitempty" yaml:"side_effects,omitempty"`
	Schema      *schema.ToolSchema `json:"-" yaml:"-"`
	Handler     ToolHandler        `json:"-" yaml:"-"`
}

// InvocationRequest is one call as received from a transport
type InvocationRequest struct {
	Tool       string
	Arguments  map[string]interface{}
	Credential string
}

// ErrorKind classifies a failed invocation
type ErrorKind string

const (
	KindAuthentication   ErrorKind = "authentication_error"
	KindUnknownTool      ErrorKind = "unknown_tool"
	KindInvalidArguments ErrorKind = "invalid_arguments"
	KindInternal         ErrorKind = "internal_error"
)

// Failure describes why an invocation did not succeed
type Failure struct {
	Kind    ErrorKind           `json:"kind"`
	Message string              `json:"message"`
	Fields  []schema.FieldError `json:"fields,omitempty"`
}

// InvocationResult is either a success carrying Text or a Failure
type InvocationResult struct {
	Text     string        `json:"text,omitempty"`
	Failure  *Failure      `json:"failure,omitempty"`
	Duration time.Duration `json:"-"`
}

// OK reports whether the invocation succeeded
func (r InvocationResult) OK() bool {
	return r.Failure == nil
}

// Outcome returns "success" or the failure kind, for logs and metrics
func (r InvocationResult) Outcome() string {
	if r.Failure == nil {
		return "success"
	}
	return string(r.Failure.Kind)
}

func success(text string) InvocationResult {
	return InvocationResult{Text: text}
}

func failure(kind ErrorKind, message string, fields []schema.FieldError) InvocationResult {
	return InvocationResult{Failure: &Failure{Kind: kind, Message: message, Fields: fields}}
}
