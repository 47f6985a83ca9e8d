package openapi

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// SchemaCacheKey identifies a built schema.
type SchemaCacheKey struct {
	// Handler is the handler identity, see HandlerIdentity.
	Handler string

	// MediaType is the request media type without parameters.
	MediaType string
}

// SchemaCache stores built request body schemas. A stored nil schema
// records that the handler has nothing to validate for the media type.
type SchemaCache interface {
	Load(key SchemaCacheKey) (*JSONSchema, bool)
	LoadOrStore(key SchemaCacheKey, schema *JSONSchema) (*JSONSchema, bool)
}

// MemorySchemaCache is an in-process SchemaCache safe for concurrent use.
// Entries are never evicted.
type MemorySchemaCache struct {
	m *xsync.MapOf[SchemaCacheKey, *JSONSchema]
}

// NewMemorySchemaCache returns an empty MemorySchemaCache.
func NewMemorySchemaCache() *MemorySchemaCache {
	return &MemorySchemaCache{m: xsync.NewMapOf[SchemaCacheKey, *JSONSchema]()}
}

// Load implements SchemaCache.
func (c *MemorySchemaCache) Load(key SchemaCacheKey) (*JSONSchema, bool) {
	return c.m.Load(key)
}

// LoadOrStore implements SchemaCache.
func (c *MemorySchemaCache) LoadOrStore(key SchemaCacheKey, schema *JSONSchema) (*JSONSchema, bool) {
	return c.m.LoadOrStore(key, schema)
}

// Len returns the number of cached entries.
func (c *MemorySchemaCache) Len() int {
	return c.m.Size()
}
