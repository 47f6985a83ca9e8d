package muxhandlers

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vitalvas/oaspec/openapi"
	"github.com/xeipuuv/gojsonschema"
)

// GoJSONSchemaValidator validates payloads with github.com/xeipuuv/gojsonschema.
// Compiled schemas are kept per schema document.
type GoJSONSchemaValidator struct {
	compiled *xsync.MapOf[string, *gojsonschema.Schema]
}

// NewGoJSONSchemaValidator returns a GoJSONSchemaValidator.
func NewGoJSONSchemaValidator() *GoJSONSchemaValidator {
	return &GoJSONSchemaValidator{compiled: xsync.NewMapOf[string, *gojsonschema.Schema]()}
}

// Validate implements Validator.
func (v *GoJSONSchemaValidator) Validate(schema *openapi.JSONSchema, payload any) ([]Violation, error) {
	compiled, err := v.compile(schema)
	if err != nil {
		return nil, err
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(payload))
	if err != nil {
		return nil, fmt.Errorf("gojsonschema: validate: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		pointer := propertyToPointer(e.Field())
		violations = append(violations, Violation{
			Property:   pointerToProperty(pointer),
			Pointer:    pointer,
			Message:    e.Description(),
			Constraint: e.Type(),
		})
	}

	return violations, nil
}

func (v *GoJSONSchemaValidator) compile(schema *openapi.JSONSchema) (*gojsonschema.Schema, error) {
	doc, err := schemaDocument(schema)
	if err != nil {
		return nil, err
	}

	key := string(doc)
	if compiled, ok := v.compiled.Load(key); ok {
		return compiled, nil
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("gojsonschema: compile: %w", err)
	}

	actual, _ := v.compiled.LoadOrStore(key, compiled)
	return actual, nil
}
