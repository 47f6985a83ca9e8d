package muxhandlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/oaspec/openapi"
)

func createPerson(http.ResponseWriter, *http.Request) {}

func personSchema(t *testing.T) *openapi.JSONSchema {
	t.Helper()

	minLength := 1
	name := openapi.NewString()
	name.MinLength = &minLength

	address := openapi.NewObject(openapi.Prop("city", openapi.NewString())).
		WithRequired("city").
		Named("Address")

	reg := openapi.NewRegistry()
	reg.Describe(createPerson).Request(openapi.NewObject(
		openapi.Prop("name", name),
		openapi.Prop("age", openapi.NewInteger()),
		openapi.Prop("address", address),
		openapi.Prop("tags", openapi.NewArray(openapi.NewString())),
	).WithRequired("name"))

	schema, err := openapi.NewSchemaBuilder(reg).ForRequestBody(createPerson, "application/json")
	require.NoError(t, err)
	require.NotNil(t, schema)

	return schema
}

func decodeJSON(t *testing.T, body string) any {
	t.Helper()

	payload, err := DecodeBody("application/json", []byte(body))
	require.NoError(t, err)
	return payload
}

func findViolation(violations []Violation, pointer string) (Violation, bool) {
	for _, v := range violations {
		if v.Pointer == pointer {
			return v, true
		}
	}
	return Violation{}, false
}

func TestValidators(t *testing.T) {
	validators := map[string]Validator{
		"gojsonschema": NewGoJSONSchemaValidator(),
		"jsonschema":   NewJSONSchemaValidator(),
	}

	for name, validator := range validators {
		t.Run(name, func(t *testing.T) {
			schema := personSchema(t)

			t.Run("valid payload", func(t *testing.T) {
				violations, err := validator.Validate(schema, decodeJSON(t, `{"name":"Ann","age":30,"address":{"city":"Kyiv"},"tags":["a"]}`))
				require.NoError(t, err)
				assert.Empty(t, violations)
			})

			t.Run("missing required property", func(t *testing.T) {
				violations, err := validator.Validate(schema, decodeJSON(t, `{"age":30}`))
				require.NoError(t, err)
				require.Len(t, violations, 1)
				assert.Equal(t, "", violations[0].Pointer)
				assert.Equal(t, "", violations[0].Property)
				assert.Equal(t, "required", violations[0].Constraint)
				assert.NotEmpty(t, violations[0].Message)
			})

			t.Run("wrong type", func(t *testing.T) {
				violations, err := validator.Validate(schema, decodeJSON(t, `{"name":"Ann","age":"thirty"}`))
				require.NoError(t, err)

				v, ok := findViolation(violations, "/age")
				require.True(t, ok, "%+v", violations)
				assert.Equal(t, "age", v.Property)
			})

			t.Run("violations inside definitions", func(t *testing.T) {
				violations, err := validator.Validate(schema, decodeJSON(t, `{"name":"Ann","address":{}}`))
				require.NoError(t, err)

				v, ok := findViolation(violations, "/address")
				require.True(t, ok, "%+v", violations)
				assert.Equal(t, "address", v.Property)
			})

			t.Run("array items", func(t *testing.T) {
				violations, err := validator.Validate(schema, decodeJSON(t, `{"name":"Ann","tags":["a",1]}`))
				require.NoError(t, err)

				v, ok := findViolation(violations, "/tags/1")
				require.True(t, ok, "%+v", violations)
				assert.Equal(t, "tags[1]", v.Property)
			})

			t.Run("empty object", func(t *testing.T) {
				violations, err := validator.Validate(schema, map[string]any{})
				require.NoError(t, err)
				assert.Len(t, violations, 1)
			})

			t.Run("compiled schema is reused", func(t *testing.T) {
				for range 3 {
					_, err := validator.Validate(schema, map[string]any{"name": "Ann"})
					require.NoError(t, err)
				}
			})
		})
	}
}

func TestPointerConversion(t *testing.T) {
	tests := []struct {
		pointer  string
		property string
	}{
		{"", ""},
		{"/name", "name"},
		{"/address/city", "address.city"},
		{"/tags/0", "tags[0]"},
		{"/items/2/name", "items[2].name"},
		{"/a~1b", "a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.pointer, func(t *testing.T) {
			assert.Equal(t, tt.property, pointerToProperty(tt.pointer))
		})
	}

	assert.Equal(t, "", propertyToPointer("(root)"))
	assert.Equal(t, "/tags/1", propertyToPointer("tags.1"))
	assert.Equal(t, "/address/city", propertyToPointer("(root).address.city"))
}

func TestSchemaDocumentDropsDialect(t *testing.T) {
	doc, err := schemaDocument(personSchema(t))
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "$schema")
	assert.Contains(t, string(doc), `"definitions"`)
}
