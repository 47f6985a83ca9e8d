package openapi

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Exampler can be implemented by types to provide an example value
// for the fragment reflected from them.
//
//	func (p Pet) OpenAPIExample() any {
//	    return Pet{ID: 1, Name: "Rex"}
//	}
type Exampler interface {
	OpenAPIExample() any
}

var timeType = reflect.TypeOf(time.Time{})

// schemaNames assigns fragment names for the process. Every SchemaOf call
// shares it so a name never stands for two different types.
var schemaNames = &nameTable{
	typeNames: make(map[reflect.Type]string),
	nameTypes: make(map[string]reflect.Type),
}

type nameTable struct {
	mu        sync.Mutex
	typeNames map[reflect.Type]string
	nameTypes map[string]reflect.Type
}

// SchemaOf reflects the Go type of v into a schema fragment. A *Schema
// is returned unchanged. Named struct types become named fragments
// (RefName is the type name) that render as references.
//
// Struct fields follow encoding/json naming. Fields without omitempty
// are required. The `openapi` struct tag adds constraints:
//
//	Name string `json:"name" openapi:"description=Pet name,minLength=1"`
func SchemaOf(v any) *Schema {
	switch s := v.(type) {
	case nil:
		return nil
	case *Schema:
		return s
	}

	r := &reflector{seen: make(map[reflect.Type]*Schema)}
	return r.schemaFor(reflect.TypeOf(v))
}

type reflector struct {
	seen map[reflect.Type]*Schema
}

func (r *reflector) schemaFor(t reflect.Type) *Schema {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	if t.Kind() == reflect.Struct && t != timeType {
		if name := schemaNames.name(t); name != "" {
			return r.namedStruct(t, name)
		}
	}

	s := r.inline(t)
	if s != nil && nullable {
		s.Nullable = true
	}
	return s
}

func (r *reflector) namedStruct(t reflect.Type, name string) *Schema {
	if s, ok := r.seen[t]; ok {
		return s
	}

	s := &Schema{RefName: name}
	r.seen[t] = s

	body := r.structSchema(t)
	ref := s.RefName
	*s = *body
	s.RefName = ref

	if ex, ok := reflect.New(t).Interface().(Exampler); ok {
		s.Example = ex.OpenAPIExample()
	}

	return s
}

func (r *reflector) inline(t reflect.Type) *Schema {
	if t == timeType {
		return NewString().WithFormat("date-time")
	}

	switch t.Kind() {
	case reflect.Bool:
		return NewBoolean()
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return NewInteger().WithFormat("int32")
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64:
		return NewInteger().WithFormat("int64")
	case reflect.Float32:
		return NewNumber().WithFormat("float")
	case reflect.Float64:
		return NewNumber().WithFormat("double")
	case reflect.String:
		return NewString()
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return NewString().WithFormat("byte")
		}
		return NewArray(r.schemaFor(t.Elem()))
	case reflect.Array:
		return NewArray(r.schemaFor(t.Elem()))
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return &Schema{Type: TypeObject}
		}
		return &Schema{Type: TypeObject, AdditionalProperties: r.schemaFor(t.Elem())}
	case reflect.Struct:
		return r.structSchema(t)
	case reflect.Interface:
		return &Schema{}
	}

	return nil
}

func (r *reflector) structSchema(t reflect.Type) *Schema {
	s := &Schema{Type: TypeObject}
	r.collectFields(t, s, false)
	return s
}

// collectFields adds the exported fields of t to s. Fields promoted from
// a pointer-embedded struct are never required.
func (r *reflector) collectFields(t reflect.Type, s *Schema, allOptional bool) {
	for i := range t.NumField() {
		field := t.Field(i)

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name, opts := parseJSONTag(jsonTag)

		if field.Anonymous && name == "" {
			ft := field.Type
			isPtr := ft.Kind() == reflect.Pointer
			if isPtr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				// Fields of unexported embedded structs are still promoted.
				r.collectFields(ft, s, allOptional || isPtr)
				continue
			}
		}

		if !field.IsExported() {
			continue
		}

		if name == "" {
			name = field.Name
		}

		fs := r.schemaFor(field.Type)
		if fs == nil {
			continue
		}

		if tag := field.Tag.Get("openapi"); tag != "" {
			if fs.RefName != "" {
				// Named fragments are shared; constrain a wrapper instead.
				fs = &Schema{AllOf: []*Schema{fs}}
			}
			applyOpenAPITag(fs, tag)
		}

		s.Properties = append(s.Properties, Prop(name, fs))

		if !opts.omitempty && !allOptional {
			s.Required = append(s.Required, name)
		}
	}
}

type jsonTagOpts struct {
	omitempty bool
}

func parseJSONTag(tag string) (string, jsonTagOpts) {
	if tag == "" {
		return "", jsonTagOpts{}
	}
	name, rest, _ := strings.Cut(tag, ",")
	return name, jsonTagOpts{
		omitempty: strings.Contains(rest, "omitempty") || strings.Contains(rest, "omitzero"),
	}
}

// applyOpenAPITag parses the `openapi` struct tag into schema keywords.
func applyOpenAPITag(s *Schema, tag string) {
	for part := range strings.SplitSeq(tag, ",") {
		key, value, _ := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "description":
			s.Description = value
		case "title":
			s.Title = value
		case "format":
			s.Format = value
		case "pattern":
			s.Pattern = value
		case "example":
			s.Example = typedValue(s, value)
		case "default":
			s.Default = typedValue(s, value)
		case "enum":
			values := strings.Split(value, "|")
			s.Enum = make([]any, len(values))
			for i, v := range values {
				s.Enum[i] = typedValue(s, v)
			}
		case "minimum":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				s.Minimum = &v
			}
		case "maximum":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				s.Maximum = &v
			}
		case "minLength":
			if v, err := strconv.Atoi(value); err == nil {
				s.MinLength = &v
			}
		case "maxLength":
			if v, err := strconv.Atoi(value); err == nil {
				s.MaxLength = &v
			}
		case "minItems":
			if v, err := strconv.Atoi(value); err == nil {
				s.MinItems = &v
			}
		case "maxItems":
			if v, err := strconv.Atoi(value); err == nil {
				s.MaxItems = &v
			}
		case "uniqueItems":
			s.UniqueItems = true
		case "readOnly":
			s.ReadOnly = true
		case "writeOnly":
			s.WriteOnly = true
		case "deprecated":
			s.Deprecated = true
		}
	}
}

// typedValue converts a tag value according to the schema type.
func typedValue(s *Schema, value string) any {
	switch s.Type {
	case TypeInteger:
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	case TypeNumber:
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	case TypeBoolean:
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return value
}

// name returns a unique fragment name for t. When another type already
// holds the simple name, the capitalized last package path segment is
// prefixed ("api.User" becomes "ApiUser"); a numeric suffix is appended
// if that still collides.
func (n *nameTable) name(t reflect.Type) string {
	simple := sanitizeSchemaName(t.Name())
	if simple == "" || t.PkgPath() == "" {
		return ""
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if name, ok := n.typeNames[t]; ok {
		return name
	}

	name := simple
	if existing, ok := n.nameTypes[name]; ok && existing != t {
		name = pkgPrefix(t.PkgPath()) + simple
		if existing, ok := n.nameTypes[name]; ok && existing != t {
			base := name
			for i := 2; ; i++ {
				candidate := base + strconv.Itoa(i)
				if _, ok := n.nameTypes[candidate]; !ok {
					name = candidate
					break
				}
			}
		}
	}

	n.typeNames[t] = name
	n.nameTypes[name] = t
	return name
}

// pkgPrefix capitalizes the last segment of a package path
// ("net/http" becomes "Http").
func pkgPrefix(pkgPath string) string {
	if idx := strings.LastIndexByte(pkgPath, '/'); idx >= 0 {
		pkgPath = pkgPath[idx+1:]
	}
	if pkgPath == "" {
		return ""
	}
	pkgPath = strings.ReplaceAll(pkgPath, "-", "_")
	pkgPath = strings.ReplaceAll(pkgPath, ".", "_")
	return strings.ToUpper(pkgPath[:1]) + pkgPath[1:]
}

// sanitizeSchemaName turns generic instantiations like "Page[pkg.Pet]"
// into "PagePet" and "Page[[]pkg.Pet]" into "PagePetList".
func sanitizeSchemaName(name string) string {
	idx := strings.IndexByte(name, '[')
	if idx < 0 {
		return name
	}

	base := name[:idx]
	inner := name[idx+1 : len(name)-1]

	isList := strings.HasPrefix(inner, "[]")
	inner = strings.TrimPrefix(inner, "[]")

	if dot := strings.LastIndexByte(inner, '.'); dot >= 0 {
		inner = inner[dot+1:]
	}

	if isList {
		return base + inner + "List"
	}
	return base + inner
}
