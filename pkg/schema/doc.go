// Package schema declares tool input schemas and validates call arguments
// against them.
//
// A ToolSchema is an ordered list of ParameterSpec values. Validate coerces
// each supplied argument to its declared type, then checks the coerced set
// against the compiled JSON Schema. Every violation is reported at once as a
// *ValidationError whose fields are sorted by name.
//
// Usage:
//
//	s := schema.MustNew(
//		schema.ParameterSpec{Name: "email_draft", Type: schema.TypeString, Description: "The draft", Required: true},
//	)
//	args, err := s.Validate(map[string]interface{}{"email_draft": "hi"})
package schema
