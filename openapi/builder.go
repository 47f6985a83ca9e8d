package openapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vitalvas/oaspec/logging"
)

// JSONSchemaDialect is the $schema marker of built request body schemas.
const JSONSchemaDialect = "http://json-schema.org/draft-00/schema#"

// ErrUnsupportedMediaType matches every *UnsupportedMediaTypeError.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// UnsupportedMediaTypeError is returned when a handler declares a request
// body that does not accept the requested media type.
type UnsupportedMediaTypeError struct {
	// Type is the requested media type.
	Type string

	// Supported lists the declared media types in declaration order.
	Supported []string
}

func (e *UnsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("Media type %q is not supported for this operation.", e.Type)
}

// Is reports whether target is ErrUnsupportedMediaType.
func (e *UnsupportedMediaTypeError) Is(target error) bool {
	return target == ErrUnsupportedMediaType
}

// JSONSchema is a standalone request body schema: the $schema marker,
// the root fragment members and the definitions of named fragments.
type JSONSchema struct {
	tree *Tree
}

// Tree returns the rendered schema.
func (s *JSONSchema) Tree() *Tree {
	return s.tree
}

// Type returns the root type. A root reference is followed into the
// definitions. An empty string means the root is unconstrained.
func (s *JSONSchema) Type() string {
	if s == nil {
		return ""
	}
	if t, ok := s.tree.Get("type"); ok {
		return primaryType(t)
	}

	ref, ok := s.tree.Get("$ref")
	if !ok {
		return ""
	}
	name, ok := strings.CutPrefix(fmt.Sprint(ref), definitionsSchemaPrefix)
	if !ok {
		return ""
	}

	defs, ok := s.tree.Get("definitions")
	if !ok {
		return ""
	}
	table, ok := defs.(*Tree)
	if !ok {
		return ""
	}
	def, ok := table.Get(name)
	if !ok {
		return ""
	}
	body, ok := def.(*Tree)
	if !ok {
		return ""
	}
	t, _ := body.Get("type")
	return primaryType(t)
}

// primaryType returns the non-null member of a type keyword. Nullable
// fragments render their type as [T, "null"].
func primaryType(t any) string {
	switch v := t.(type) {
	case string:
		return v
	case []any:
		for _, item := range v {
			if str, ok := item.(string); ok && str != "null" {
				return str
			}
		}
	}
	return ""
}

// MarshalJSON implements json.Marshaler.
func (s *JSONSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.tree)
}

// SchemaBuilder builds request body schemas from handler metadata.
type SchemaBuilder struct {
	reader MetadataReader
	cache  SchemaCache
	logger logging.Logger
}

// SchemaBuilderOption configures a SchemaBuilder.
type SchemaBuilderOption func(*SchemaBuilder)

// WithSchemaCache stores built schemas per handler and media type.
// Without a cache every call reads metadata again.
func WithSchemaCache(cache SchemaCache) SchemaBuilderOption {
	return func(b *SchemaBuilder) {
		b.cache = cache
	}
}

// WithBuilderLogger sets the logger.
func WithBuilderLogger(logger logging.Logger) SchemaBuilderOption {
	return func(b *SchemaBuilder) {
		b.logger = logging.OrNoOp(logger)
	}
}

// NewSchemaBuilder returns a builder reading metadata through reader.
// A nil reader reads handlers implementing Describer only.
func NewSchemaBuilder(reader MetadataReader, opts ...SchemaBuilderOption) *SchemaBuilder {
	if reader == nil {
		reader = DescriberReader{}
	}

	b := &SchemaBuilder{
		reader: reader,
		logger: logging.NoOp(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// ForRequestBody returns the schema a request body of mediaType must
// satisfy for handler. It returns nil without error when the handler
// declares no request body or no schema for the media type.
//
// An *UnsupportedMediaTypeError is returned when the handler declares a
// request body that does not list mediaType. An error wrapping
// ErrMisconfigured is returned for unresolvable request body references.
func (b *SchemaBuilder) ForRequestBody(handler any, mediaType string) (*JSONSchema, error) {
	if b.cache == nil {
		return b.build(handler, mediaType)
	}

	key := SchemaCacheKey{Handler: HandlerIdentity(handler), MediaType: mediaType}
	if schema, ok := b.cache.Load(key); ok {
		return schema, nil
	}

	schema, err := b.build(handler, mediaType)
	if err != nil {
		return nil, err
	}

	schema, _ = b.cache.LoadOrStore(key, schema)

	b.logger.Debug("request body schema cached", "handler", key.Handler, "media_type", mediaType)

	return schema, nil
}

func (b *SchemaBuilder) build(handler any, mediaType string) (*JSONSchema, error) {
	body, err := resolveRequestBody(b.reader, b.reader.ReadMetadata(handler))
	if err != nil || body == nil {
		return nil, err
	}

	if len(body.Content) == 0 {
		return nil, &UnsupportedMediaTypeError{Type: mediaType, Supported: []string{}}
	}

	entry, ok := body.Lookup(mediaType)
	if !ok {
		return nil, &UnsupportedMediaTypeError{Type: mediaType, Supported: body.MediaTypes()}
	}

	if entry.Schema == nil {
		return nil, nil
	}

	defs := NewTree()
	l := &schemaLowerer{
		prefix: definitionsSchemaPrefix,
		table:  func() *Tree { return defs },
	}
	root := l.lower(entry.Schema)

	t := NewTree()
	t.Set("$schema", JSONSchemaDialect)
	for pair := root.Oldest(); pair != nil; pair = pair.Next() {
		t.Set(pair.Key, pair.Value)
	}
	if defs.Len() > 0 {
		t.Set("definitions", defs)
	}

	return &JSONSchema{tree: t}, nil
}
