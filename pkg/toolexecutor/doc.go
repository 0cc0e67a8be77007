// Package toolexecutor registers schema-typed tools and dispatches calls
// to them.
//
// Invariants:
//   - Tool names are unique; the registry is populated at startup and only
//     read afterwards.
//   - A call runs auth, lookup, validation and invocation in that order and
//     stops at the first failure, so no handler runs for a rejected call.
//   - Every outcome is an InvocationResult; handler errors and panics become
//     internal_error failures whose message has secrets redacted.
//
// Usage:
//
//	reg := toolexecutor.NewRegistry()
//	_ = reg.Register(toolexecutor.ToolDescriptor{
//		Name:        "echo",
//		Description: "Echo input",
//		Schema:      schema.MustNew(schema.ParameterSpec{Name: "text", Type: schema.TypeString, Description: "text", Required: true}),
//		Handler: func(ctx context.Context, args schema.Arguments) (string, error) {
//			return args.String("text"), nil
//		},
//	})
//	exec := toolexecutor.NewExecutor(reg, validator)
//	res := exec.Execute(ctx, toolexecutor.InvocationRequest{Tool: "echo", Arguments: args, Credential: token})
package toolexecutor
