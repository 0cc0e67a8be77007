package schema

import "github.com/spf13/cast"

// Arguments holds validated, coerced call arguments.
type Arguments map[string]interface{}

// String returns the named argument as a string, or "".
func (a Arguments) String(name string) string {
	return cast.ToString(a[name])
}

// Int returns the named argument as an int, or 0.
func (a Arguments) Int(name string) int {
	return cast.ToInt(a[name])
}

// Float returns the named argument as a float64, or 0.
func (a Arguments) Float(name string) float64 {
	return cast.ToFloat64(a[name])
}

// Bool returns the named argument as a bool, or false.
func (a Arguments) Bool(name string) bool {
	return cast.ToBool(a[name])
}

// Has reports whether name is present.
func (a Arguments) Has(name string) bool {
	_, ok := a[name]
	return ok
}
