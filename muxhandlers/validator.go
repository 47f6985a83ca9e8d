package muxhandlers

import (
	"encoding/json"
	"strings"

	"github.com/vitalvas/oaspec/openapi"
)

// Violation is a single reason a payload does not satisfy a schema.
type Violation struct {
	// Property is the dotted path of the offending value, empty for the root.
	Property string `json:"property"`

	// Pointer is the JSON pointer of the offending value.
	Pointer string `json:"pointer"`

	// Message is a human readable explanation.
	Message string `json:"message"`

	// Constraint names the failed schema keyword.
	Constraint string `json:"constraint,omitempty"`
}

// Validator checks a payload against a request body schema. An empty
// result means the payload is valid. An error is returned when the
// schema itself cannot be used.
type Validator interface {
	Validate(schema *openapi.JSONSchema, payload any) ([]Violation, error)
}

// schemaDocument returns the schema as JSON without the $schema marker,
// which names no draft known to validators.
func schemaDocument(schema *openapi.JSONSchema) ([]byte, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "$schema")

	return json.Marshal(doc)
}

// pointerToProperty converts "/a/0/b" into "a[0].b".
func pointerToProperty(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return ""
	}

	var b strings.Builder
	for i, seg := range strings.Split(pointer, "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		if isIndex(seg) {
			b.WriteString("[" + seg + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}

	return b.String()
}

// propertyToPointer converts "a.0.b" into "/a/0/b". The root, reported
// as "(root)", becomes "".
func propertyToPointer(property string) string {
	if property == "" || property == "(root)" {
		return ""
	}
	property = strings.TrimPrefix(property, "(root).")
	return "/" + strings.ReplaceAll(property, ".", "/")
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
