package openapi

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"
)

// MetadataReader reads the operation metadata attached to a handler.
// It returns nil when the handler carries none.
type MetadataReader interface {
	ReadMetadata(handler any) *OperationMeta
}

// Describer can be implemented by handlers that carry their own metadata.
//
//	func (h *CreatePet) OpenAPIOperation() *openapi.OperationMeta { ... }
type Describer interface {
	OpenAPIOperation() *OperationMeta
}

// DescriberReader reads metadata only from handlers implementing Describer.
type DescriberReader struct{}

// ReadMetadata implements MetadataReader.
func (DescriberReader) ReadMetadata(handler any) *OperationMeta {
	if d, ok := handler.(Describer); ok {
		return d.OpenAPIOperation()
	}
	return nil
}

// HandlerIdentity returns a stable identity for a handler. Functions are
// identified by their symbol name and values by their package qualified
// type name. Pointers also carry their address, so two handlers of the
// same type wrapped around different routes stay apart. An empty string
// is returned for nil.
func HandlerIdentity(handler any) string {
	if handler == nil {
		return ""
	}

	v := reflect.ValueOf(handler)
	if v.Kind() == reflect.Func {
		if v.IsNil() {
			return ""
		}
		if fn := runtime.FuncForPC(v.Pointer()); fn != nil {
			return fn.Name()
		}
		return v.Type().String()
	}

	t := v.Type()
	isPtr := t.Kind() == reflect.Pointer
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	name := t.String()
	if t.Name() != "" {
		name = t.PkgPath() + "." + t.Name()
	}

	if isPtr {
		if v.IsNil() {
			return ""
		}
		return fmt.Sprintf("%s@%p", name, handler)
	}
	return name
}

// Registry stores operation metadata by handler identity. Registration
// is expected during startup; reads are safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]*OperationMeta
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]*OperationMeta)}
}

// Describe returns a builder for the metadata of handler. Calling
// Describe again for the same handler continues the same metadata.
//
//	reg.Describe(createPet).
//	    Summary("Create a pet").
//	    Request(NewPet{}).
//	    Response(http.StatusCreated, "", Pet{})
func (r *Registry) Describe(handler any) *OperationBuilder {
	id := HandlerIdentity(handler)

	r.mu.Lock()
	defer r.mu.Unlock()

	meta, ok := r.ops[id]
	if !ok {
		meta = &OperationMeta{}
		r.ops[id] = meta
	}

	return &OperationBuilder{meta: meta}
}

// Set replaces the metadata of handler.
func (r *Registry) Set(handler any, meta *OperationMeta) {
	r.mu.Lock()
	r.ops[HandlerIdentity(handler)] = meta
	r.mu.Unlock()
}

// ReadMetadata implements MetadataReader. Handlers implementing
// Describer take precedence over registered metadata.
func (r *Registry) ReadMetadata(handler any) *OperationMeta {
	if meta := (DescriberReader{}).ReadMetadata(handler); meta != nil {
		return meta
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.ops[HandlerIdentity(handler)]
}

// Len returns the number of described handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ops)
}

// Group returns a Group that applies shared defaults to every handler
// described through it.
func (r *Registry) Group() *Group {
	return &Group{registry: r}
}

// Group holds shared tags and responses for a set of operations.
//
//	pets := reg.Group().Tags("pets").DefaultResponse("Unexpected error", Problem{})
//	pets.Describe(listPets).Summary("List pets")
//	pets.Describe(createPet).Summary("Create a pet")
type Group struct {
	registry  *Registry
	tags      []string
	responses []groupResponse
}

type groupResponse struct {
	status      int
	isDefault   bool
	description string
	body        any
}

// Tags adds tags applied to every operation of the group.
func (g *Group) Tags(tags ...string) *Group {
	g.tags = append(g.tags, tags...)
	return g
}

// Response adds an application/json response applied to every operation
// of the group.
func (g *Group) Response(status int, description string, body any) *Group {
	g.responses = append(g.responses, groupResponse{status: status, description: description, body: body})
	return g
}

// DefaultResponse adds a catch-all response applied to every operation
// of the group.
func (g *Group) DefaultResponse(description string, body any) *Group {
	g.responses = append(g.responses, groupResponse{isDefault: true, description: description, body: body})
	return g
}

// Describe returns a builder for handler with the group defaults applied.
// Operation level declarations made afterwards override the defaults.
func (g *Group) Describe(handler any) *OperationBuilder {
	b := g.registry.Describe(handler)
	b.Tags(g.tags...)
	for _, resp := range g.responses {
		if resp.isDefault {
			b.DefaultResponse(resp.description, resp.body)
			continue
		}
		b.Response(resp.status, resp.description, resp.body)
	}
	return b
}
