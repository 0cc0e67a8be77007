package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/spf13/cast"
	"github.com/xeipuuv/gojsonschema"
)

// Validate checks args against the schema. On success it returns the
// coerced arguments with defaults filled in for absent optional
// parameters. A nil value counts as absent for known parameters only.
func (s *ToolSchema) Validate(args map[string]interface{}) (Arguments, error) {
	var c collector
	coerced := make(map[string]interface{}, len(args))

	for name, raw := range args {
		p, known := s.Parameter(name)
		if !known {
			// left in place so the JSON Schema pass reports it
			coerced[name] = raw
			continue
		}
		if raw == nil {
			continue
		}
		v, err := coerce(raw, p.Type)
		if err != nil {
			c.add(name, TypeMismatch, "%v", err)
			continue
		}
		coerced[name] = v
	}

	if err := s.checkStructure(coerced, &c); err != nil {
		return nil, err
	}
	if err := c.err(); err != nil {
		return nil, err
	}

	out := make(Arguments, len(s.params))
	for _, p := range s.params {
		if v, ok := coerced[p.Name]; ok {
			out[p.Name] = v
		} else if p.Default != nil {
			v, _ := coerce(p.Default, p.Type)
			out[p.Name] = v
		}
	}
	return out, nil
}

// checkStructure runs the compiled JSON Schema over the coerced values,
// mapping its findings onto field errors. Fields that already failed
// coercion are absent from doc and so are reported as missing only when
// coercion did not already record them.
func (s *ToolSchema) checkStructure(doc map[string]interface{}, c *collector) error {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	for _, re := range result.Errors() {
		field := re.Field()
		if prop, ok := re.Details()["property"].(string); ok && prop != "" {
			field = prop
		}
		switch re.Type() {
		case "required":
			c.add(field, MissingArgument, "required argument is missing")
		case "additional_property_not_allowed":
			c.add(field, UnknownArgument, "argument is not part of the schema")
		default:
			c.add(field, TypeMismatch, "%s", re.Description())
		}
	}
	return nil
}

// coerce converts v to the Go representation of t. Strings are never
// produced from other types and booleans never become numbers.
func coerce(v interface{}, t Type) (interface{}, error) {
	switch t {
	case TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case TypeNumber:
		if isBool(v) {
			break
		}
		f, err := cast.ToFloat64E(trimmed(v))
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, nil
		}
	case TypeInteger:
		if isBool(v) {
			break
		}
		f, err := cast.ToFloat64E(trimmed(v))
		if err == nil && f == math.Trunc(f) && math.Abs(f) <= 1<<53 {
			return int64(f), nil
		}
	case TypeBoolean:
		switch v.(type) {
		case bool, string:
			b, err := cast.ToBoolE(trimmed(v))
			if err == nil {
				return b, nil
			}
		}
	case TypeObject:
		if m, ok := v.(map[string]interface{}); ok {
			return m, nil
		}
		if reflect.TypeOf(v).Kind() == reflect.Map {
			if m, err := cast.ToStringMapE(v); err == nil {
				return m, nil
			}
		}
	case TypeArray:
		if a, ok := v.([]interface{}); ok {
			return a, nil
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			out := make([]interface{}, rv.Len())
			for i := range out {
				out[i] = rv.Index(i).Interface()
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("expected %s, got %s", t, describe(v))
}

func isBool(v interface{}) bool {
	_, ok := v.(bool)
	return ok
}

func trimmed(v interface{}) interface{} {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return v
}

func describe(v interface{}) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "number"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}
