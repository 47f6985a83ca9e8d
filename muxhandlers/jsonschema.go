package muxhandlers

import (
	"bytes"
	"errors"
	"fmt"
	"path"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/vitalvas/oaspec/openapi"
)

const jsonSchemaResource = "request-body.json"

// JSONSchemaValidator validates payloads with
// github.com/santhosh-tekuri/jsonschema/v5 using draft 4 semantics.
// Compiled schemas are kept per schema document.
type JSONSchemaValidator struct {
	compiled *xsync.MapOf[string, *jsonschema.Schema]
}

// NewJSONSchemaValidator returns a JSONSchemaValidator.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{compiled: xsync.NewMapOf[string, *jsonschema.Schema]()}
}

// Validate implements Validator.
func (v *JSONSchemaValidator) Validate(schema *openapi.JSONSchema, payload any) ([]Violation, error) {
	compiled, err := v.compile(schema)
	if err != nil {
		return nil, err
	}

	err = compiled.Validate(payload)
	if err == nil {
		return nil, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("jsonschema: validate: %w", err)
	}

	var violations []Violation
	collectViolations(ve, &violations)

	return violations, nil
}

func (v *JSONSchemaValidator) compile(schema *openapi.JSONSchema) (*jsonschema.Schema, error) {
	doc, err := schemaDocument(schema)
	if err != nil {
		return nil, err
	}

	key := string(doc)
	if compiled, ok := v.compiled.Load(key); ok {
		return compiled, nil
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft4
	if err := compiler.AddResource(jsonSchemaResource, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("jsonschema: add resource: %w", err)
	}

	compiled, err := compiler.Compile(jsonSchemaResource)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: compile: %w", err)
	}

	actual, _ := v.compiled.LoadOrStore(key, compiled)
	return actual, nil
}

// collectViolations flattens the leaves of a validation error tree.
func collectViolations(ve *jsonschema.ValidationError, out *[]Violation) {
	if len(ve.Causes) == 0 {
		keyword := path.Base(ve.KeywordLocation)
		if keyword == "." || keyword == "/" {
			keyword = ""
		}
		*out = append(*out, Violation{
			Property:   pointerToProperty(ve.InstanceLocation),
			Pointer:    ve.InstanceLocation,
			Message:    ve.Message,
			Constraint: keyword,
		})
		return
	}

	for _, cause := range ve.Causes {
		collectViolations(cause, out)
	}
}
