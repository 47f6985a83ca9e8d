package openapi

import (
	"slices"
	"sort"
)

// Schema types.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Reference prefixes used when named fragments are lowered.
const (
	componentsSchemaPrefix  = "#/components/schemas/"
	definitionsSchemaPrefix = "#/definitions/"
)

// Schema is a schema fragment. A fragment with a RefName is a named
// schema: wherever it appears it renders as a $ref and its body is
// registered once in a shared table.
//
// See: https://spec.openapis.org/oas/v3.0.2#schema-object
type Schema struct {
	RefName string

	Type        string
	Format      string
	Pattern     string
	Title       string
	Description string
	Enum        []any
	Default     any
	Example     any

	Nullable   bool
	ReadOnly   bool
	WriteOnly  bool
	Deprecated bool

	Minimum     *float64
	Maximum     *float64
	MinLength   *int
	MaxLength   *int
	MinItems    *int
	MaxItems    *int
	UniqueItems bool

	Items                *Schema
	Properties           []*Property
	AdditionalProperties *Schema
	Required             []string

	AllOf []*Schema
	OneOf []*Schema
	AnyOf []*Schema
}

// Property is a named member of an object schema.
type Property struct {
	Name   string
	Schema *Schema
}

// NewString returns a string schema.
func NewString() *Schema { return &Schema{Type: TypeString} }

// NewInteger returns an integer schema.
func NewInteger() *Schema { return &Schema{Type: TypeInteger} }

// NewNumber returns a number schema.
func NewNumber() *Schema { return &Schema{Type: TypeNumber} }

// NewBoolean returns a boolean schema.
func NewBoolean() *Schema { return &Schema{Type: TypeBoolean} }

// NewArray returns an array schema of items.
func NewArray(items *Schema) *Schema {
	return &Schema{Type: TypeArray, Items: items}
}

// NewObject returns an object schema with the given properties in order.
func NewObject(props ...*Property) *Schema {
	return &Schema{Type: TypeObject, Properties: props}
}

// Prop returns an object property.
func Prop(name string, s *Schema) *Property {
	return &Property{Name: name, Schema: s}
}

// Named sets the reference name of the fragment.
func (s *Schema) Named(refName string) *Schema {
	s.RefName = refName
	return s
}

// WithFormat sets the format.
func (s *Schema) WithFormat(format string) *Schema {
	s.Format = format
	return s
}

// WithPattern sets the pattern.
func (s *Schema) WithPattern(pattern string) *Schema {
	s.Pattern = pattern
	return s
}

// WithDescription sets the description.
func (s *Schema) WithDescription(d string) *Schema {
	s.Description = d
	return s
}

// WithRequired appends required property names.
func (s *Schema) WithRequired(names ...string) *Schema {
	for _, n := range names {
		if !slices.Contains(s.Required, n) {
			s.Required = append(s.Required, n)
		}
	}
	return s
}

// PropertySchema returns the property schema by name.
func (s *Schema) PropertySchema(name string) (*Schema, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema, true
		}
	}
	return nil, false
}

// ComponentName implements ComponentObject.
func (s *Schema) ComponentName() string { return "schemas" }

// ReferenceName implements ComponentObject.
func (s *Schema) ReferenceName() string { return s.RefName }

// ToTree renders the fragment body. Nested named fragments render as
// references into the components section without being registered.
func (s *Schema) ToTree() *Tree {
	if s == nil {
		return nil
	}
	l := &schemaLowerer{prefix: componentsSchemaPrefix}
	return l.body(s)
}

// schemaLowerer renders fragments, replacing named ones with references
// and registering their bodies in a table.
type schemaLowerer struct {
	prefix string

	// table returns the definitions table. A nil table only emits
	// references.
	table func() *Tree
}

func (l *schemaLowerer) lower(s *Schema) *Tree {
	if s == nil {
		return nil
	}

	if s.RefName == "" {
		return l.body(s)
	}

	if l.table != nil {
		defs := l.table()
		if _, ok := defs.Get(s.RefName); !ok {
			// Placeholder first: keeps parents ahead of children and
			// stops descent on cycles.
			defs.Set(s.RefName, nil)
			defs.Set(s.RefName, l.body(s))
		}
	}

	ref := NewTree()
	ref.Set("$ref", l.prefix+s.RefName)

	return ref
}

// body renders the members of s in lexical key order.
func (l *schemaLowerer) body(s *Schema) *Tree {
	m := make(map[string]any)

	put := func(key string, v any) { m[key] = v }

	if s.Type != "" {
		put("type", s.Type)
	}
	if s.Format != "" {
		put("format", s.Format)
	}
	if s.Pattern != "" {
		put("pattern", s.Pattern)
	}
	if s.Title != "" {
		put("title", s.Title)
	}
	if s.Description != "" {
		put("description", s.Description)
	}
	if len(s.Enum) > 0 {
		put("enum", s.Enum)
	}
	if s.Default != nil {
		put("default", s.Default)
	}
	if s.Example != nil {
		put("example", s.Example)
	}
	if s.Nullable {
		l.nullable(s, put)
	}
	if s.ReadOnly {
		put("readOnly", true)
	}
	if s.WriteOnly {
		put("writeOnly", true)
	}
	if s.Deprecated {
		put("deprecated", true)
	}
	if s.Minimum != nil {
		put("minimum", *s.Minimum)
	}
	if s.Maximum != nil {
		put("maximum", *s.Maximum)
	}
	if s.MinLength != nil {
		put("minLength", *s.MinLength)
	}
	if s.MaxLength != nil {
		put("maxLength", *s.MaxLength)
	}
	if s.MinItems != nil {
		put("minItems", *s.MinItems)
	}
	if s.MaxItems != nil {
		put("maxItems", *s.MaxItems)
	}
	if s.UniqueItems {
		put("uniqueItems", true)
	}
	if s.Items != nil {
		put("items", l.lower(s.Items))
	}
	if len(s.Properties) > 0 {
		props := NewTree()
		for _, p := range s.Properties {
			if p == nil || p.Schema == nil {
				continue
			}
			props.Set(p.Name, l.lower(p.Schema))
		}
		if props.Len() > 0 {
			put("properties", props)
		}
	}
	if s.AdditionalProperties != nil {
		put("additionalProperties", l.lower(s.AdditionalProperties))
	}
	if len(s.Required) > 0 {
		put("required", slices.Clone(s.Required))
	}
	if list := l.lowerAll(s.AllOf); list != nil {
		put("allOf", list)
	}
	if list := l.lowerAll(s.OneOf); list != nil {
		put("oneOf", list)
	}
	if list := l.lowerAll(s.AnyOf); list != nil {
		put("anyOf", list)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := NewTree()
	for _, k := range keys {
		t.Set(k, m[k])
	}

	return t
}

// nullable marks s as accepting null. JSON Schema draft 4 has no
// nullable keyword, so there null joins the type and enum lists.
func (l *schemaLowerer) nullable(s *Schema, put func(string, any)) {
	if l.prefix != definitionsSchemaPrefix {
		put("nullable", true)
		return
	}

	if s.Type != "" {
		put("type", []any{s.Type, "null"})
	}
	if len(s.Enum) > 0 && !slices.Contains(s.Enum, nil) {
		put("enum", append(slices.Clone(s.Enum), nil))
	}
}

func (l *schemaLowerer) lowerAll(list []*Schema) []any {
	if len(list) == 0 {
		return nil
	}
	out := make([]any, 0, len(list))
	for _, s := range list {
		if s != nil {
			out = append(out, l.lower(s))
		}
	}
	return out
}

// errorSchema is the shared error payload component.
func errorSchema() *Schema {
	return NewObject(
		Prop("code", NewInteger().WithFormat("int32")),
		Prop("message", NewString()),
	).WithRequired("code", "message").Named("Error")
}
