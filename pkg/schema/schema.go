package schema

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Type is a JSON Schema primitive type name.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
)

var validTypes = map[Type]bool{
	TypeString: true, TypeNumber: true, TypeInteger: true,
	TypeBoolean: true, TypeObject: true, TypeArray: true,
}

// ParameterSpec declares one named tool argument.
type ParameterSpec struct {
	Name        string      `json:"name" yaml:"name"`
	Type        Type        `json:"type" yaml:"type"`
	Description string      `json:"description" yaml:"description"`
	Required    bool        `json:"required" yaml:"required"`
	Default     interface{} `json:"default,omitempty" yaml:"default,omitempty"`
}

// ToolSchema is the ordered, immutable input schema of a tool.
type ToolSchema struct {
	params   []ParameterSpec
	index    map[string]int
	compiled *gojsonschema.Schema
}

// New builds a schema from params and compiles its JSON Schema form.
func New(params ...ParameterSpec) (*ToolSchema, error) {
	s := &ToolSchema{
		params: make([]ParameterSpec, 0, len(params)),
		index:  make(map[string]int, len(params)),
	}

	for _, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("parameter name cannot be empty")
		}
		if _, dup := s.index[p.Name]; dup {
			return nil, fmt.Errorf("duplicate parameter name %s", p.Name)
		}
		if !validTypes[p.Type] {
			return nil, fmt.Errorf("invalid parameter type %q for %s", p.Type, p.Name)
		}
		if p.Description == "" {
			return nil, fmt.Errorf("parameter description cannot be empty for %s", p.Name)
		}
		if p.Required && p.Default != nil {
			return nil, fmt.Errorf("required parameter %s cannot have a default", p.Name)
		}
		if p.Default != nil {
			if _, err := coerce(p.Default, p.Type); err != nil {
				return nil, fmt.Errorf("default for %s: %w", p.Name, err)
			}
		}
		s.index[p.Name] = len(s.params)
		s.params = append(s.params, p)
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(s.JSONSchema()))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	s.compiled = compiled

	return s, nil
}

// MustNew is New that panics on an invalid declaration. Meant for
// package-level tool definitions.
func MustNew(params ...ParameterSpec) *ToolSchema {
	s, err := New(params...)
	if err != nil {
		panic(err)
	}
	return s
}

// Parameters returns the declared parameters in order.
func (s *ToolSchema) Parameters() []ParameterSpec {
	out := make([]ParameterSpec, len(s.params))
	copy(out, s.params)
	return out
}

// Parameter looks up one parameter by name.
func (s *ToolSchema) Parameter(name string) (ParameterSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return ParameterSpec{}, false
	}
	return s.params[i], true
}

// JSONSchema renders the schema as a JSON Schema object. Each call returns
// a fresh map.
func (s *ToolSchema) JSONSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(s.params))
	required := []string{}

	for _, p := range s.params {
		prop := map[string]interface{}{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	doc := map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}
