package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rewriteSchema() *ToolSchema {
	return MustNew(
		ParameterSpec{Name: "email_draft", Type: TypeString, Description: "draft", Required: true},
		ParameterSpec{Name: "target_tone", Type: TypeString, Description: "tone", Required: true},
	)
}

func validationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArguments))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	return ve
}

func TestValidateSuccess(t *testing.T) {
	args, err := rewriteSchema().Validate(map[string]interface{}{
		"email_draft": "Hey, send me the file",
		"target_tone": "Formal",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hey, send me the file", args.String("email_draft"))
	assert.Equal(t, "Formal", args.String("target_tone"))
}

func TestValidateMissingArgument(t *testing.T) {
	_, err := rewriteSchema().Validate(map[string]interface{}{"email_draft": "hi"})
	ve := validationError(t, err)

	require.Len(t, ve.Fields, 1)
	assert.Equal(t, FieldError{Field: "target_tone", Kind: MissingArgument, Message: "required argument is missing"}, ve.Fields[0])
}

func TestValidateNilCountsAsMissing(t *testing.T) {
	_, err := rewriteSchema().Validate(map[string]interface{}{"email_draft": "hi", "target_tone": nil})
	ve := validationError(t, err)
	assert.True(t, ve.Has("target_tone", MissingArgument))
}

func TestValidateUnknownArgument(t *testing.T) {
	_, err := rewriteSchema().Validate(map[string]interface{}{
		"email_draft": "hi",
		"target_tone": "Formal",
		"cc":          "boss@example.com",
	})
	ve := validationError(t, err)

	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "cc", ve.Fields[0].Field)
	assert.Equal(t, UnknownArgument, ve.Fields[0].Kind)
}

func TestValidateUnknownNullArgument(t *testing.T) {
	_, err := rewriteSchema().Validate(map[string]interface{}{
		"email_draft": "hi",
		"target_tone": "Formal",
		"evil":        nil,
	})
	ve := validationError(t, err)

	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "evil", ve.Fields[0].Field)
	assert.Equal(t, UnknownArgument, ve.Fields[0].Kind)

	_, err = MustNew().Validate(map[string]interface{}{"x": nil})
	ve = validationError(t, err)
	assert.True(t, ve.Has("x", UnknownArgument))
}

func TestValidateTypeMismatch(t *testing.T) {
	_, err := rewriteSchema().Validate(map[string]interface{}{
		"email_draft": 42,
		"target_tone": "Formal",
	})
	ve := validationError(t, err)

	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "email_draft", ve.Fields[0].Field)
	assert.Equal(t, TypeMismatch, ve.Fields[0].Kind)
	assert.Contains(t, ve.Fields[0].Message, "expected string")
}

func TestValidateCollectsAllSorted(t *testing.T) {
	_, err := rewriteSchema().Validate(map[string]interface{}{
		"zeta":        true,
		"email_draft": []interface{}{"x"},
	})
	ve := validationError(t, err)

	require.Len(t, ve.Fields, 3)
	assert.Equal(t, "email_draft", ve.Fields[0].Field)
	assert.Equal(t, TypeMismatch, ve.Fields[0].Kind)
	assert.Equal(t, "target_tone", ve.Fields[1].Field)
	assert.Equal(t, MissingArgument, ve.Fields[1].Kind)
	assert.Equal(t, "zeta", ve.Fields[2].Field)
	assert.Equal(t, UnknownArgument, ve.Fields[2].Kind)
	assert.Contains(t, err.Error(), "target_tone: required argument is missing")
}

func TestValidateEmptySchema(t *testing.T) {
	s := MustNew()

	args, err := s.Validate(nil)
	require.NoError(t, err)
	assert.Empty(t, args)

	_, err = s.Validate(map[string]interface{}{"extra": 1})
	ve := validationError(t, err)
	assert.True(t, ve.Has("extra", UnknownArgument))
}

func TestValidateDefaults(t *testing.T) {
	s := MustNew(
		ParameterSpec{Name: "text", Type: TypeString, Description: "t", Required: true},
		ParameterSpec{Name: "max_words", Type: TypeInteger, Description: "m", Default: 50},
		ParameterSpec{Name: "note", Type: TypeString, Description: "n"},
	)

	args, err := s.Validate(map[string]interface{}{"text": "x"})
	require.NoError(t, err)
	assert.Equal(t, int64(50), args["max_words"])
	assert.False(t, args.Has("note"))

	args, err = s.Validate(map[string]interface{}{"text": "x", "max_words": 10})
	require.NoError(t, err)
	assert.Equal(t, 10, args.Int("max_words"))
}

func TestCoercion(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		in      interface{}
		want    interface{}
		wantErr bool
	}{
		{"string", TypeString, "a", "a", false},
		{"number to string rejected", TypeString, 1.5, nil, true},
		{"float number", TypeNumber, 1.5, 1.5, false},
		{"int number", TypeNumber, 3, 3.0, false},
		{"numeric string", TypeNumber, " 2.5 ", 2.5, false},
		{"bool to number rejected", TypeNumber, true, nil, true},
		{"text to number rejected", TypeNumber, "abc", nil, true},
		{"integral float", TypeInteger, 4.0, int64(4), false},
		{"fractional rejected", TypeInteger, 4.2, nil, true},
		{"integer string", TypeInteger, "12", int64(12), false},
		{"bool to integer rejected", TypeInteger, false, nil, true},
		{"bool", TypeBoolean, true, true, false},
		{"bool string", TypeBoolean, "false", false, false},
		{"number to bool rejected", TypeBoolean, 1.0, nil, true},
		{"object", TypeObject, map[string]interface{}{"a": 1}, map[string]interface{}{"a": 1}, false},
		{"string to object rejected", TypeObject, `{"a":1}`, nil, true},
		{"array", TypeArray, []interface{}{"a"}, []interface{}{"a"}, false},
		{"typed slice", TypeArray, []string{"a", "b"}, []interface{}{"a", "b"}, false},
		{"string to array rejected", TypeArray, "a,b", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerce(tt.in, tt.typ)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	s := rewriteSchema()
	in := map[string]interface{}{"email_draft": "same", "target_tone": "Casual"}

	a, err := s.Validate(in)
	require.NoError(t, err)
	b, err := s.Validate(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
