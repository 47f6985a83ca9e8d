package openapi

import (
	"net/http"
	"slices"
	"strconv"
)

// DefaultStatus is the status key of the catch-all response.
const DefaultStatus = "default"

// OperationMeta is the documentation attached to a route handler.
//
// The request body is either declared inline (RequestBody) or borrowed
// from another handler (RequestBodyRef). When both are set the inline
// body wins.
type OperationMeta struct {
	Tags        []string
	Summary     string
	Description string
	Deprecated  bool

	RequestBody    *RequestBody
	RequestBodyRef any

	Responses []*Response
}

// describes reports whether the metadata carries any documentation.
func (m *OperationMeta) describes() bool {
	if m == nil {
		return false
	}
	return len(m.Tags) > 0 || m.Summary != "" || m.Description != "" ||
		m.RequestBody != nil || m.RequestBodyRef != nil || len(m.Responses) > 0
}

// hasRequestBody reports whether a body is declared inline or by reference.
func (m *OperationMeta) hasRequestBody() bool {
	return m != nil && (m.RequestBody != nil || m.RequestBodyRef != nil)
}

// response returns the response declared for status.
func (m *OperationMeta) response(status string) *Response {
	for _, r := range m.Responses {
		if r.Status == status {
			return r
		}
	}
	return nil
}

// RequestBody describes the accepted request payloads per media type.
//
// See: https://spec.openapis.org/oas/v3.0.2#request-body-object
type RequestBody struct {
	// RefName, when set, stores the body under components.requestBodies
	// and references it from operations.
	RefName     string
	Description string
	Required    bool
	Content     []*MediaType
}

// MediaTypes returns the declared media types in declaration order.
func (b *RequestBody) MediaTypes() []string {
	out := make([]string, 0, len(b.Content))
	for _, mt := range b.Content {
		out = append(out, mt.Type)
	}
	return out
}

// Lookup returns the entry declared for mediaType. Matching is exact.
func (b *RequestBody) Lookup(mediaType string) (*MediaType, bool) {
	for _, mt := range b.Content {
		if mt.Type == mediaType {
			return mt, true
		}
	}
	return nil, false
}

// ComponentName implements ComponentObject.
func (b *RequestBody) ComponentName() string { return "requestBodies" }

// ReferenceName implements ComponentObject.
func (b *RequestBody) ReferenceName() string { return b.RefName }

// ToTree implements Node.
func (b *RequestBody) ToTree() *Tree {
	if b == nil {
		return nil
	}
	return b.tree(&schemaLowerer{prefix: componentsSchemaPrefix})
}

func (b *RequestBody) tree(l *schemaLowerer) *Tree {
	t := NewTree()
	setString(t, "description", b.Description)
	setTree(t, "content", contentTree(b.Content, l))
	if b.Required {
		t.Set("required", true)
	}
	return t
}

// MediaType is one entry of a content map.
//
// See: https://spec.openapis.org/oas/v3.0.2#media-type-object
type MediaType struct {
	Type    string
	Schema  *Schema
	Example any
}

func (mt *MediaType) tree(l *schemaLowerer) *Tree {
	t := NewTree()
	if mt.Schema != nil {
		t.Set("schema", l.lower(mt.Schema))
	}
	if mt.Example != nil {
		t.Set("example", mt.Example)
	}
	return t
}

func contentTree(content []*MediaType, l *schemaLowerer) *Tree {
	t := NewTree()
	for _, mt := range content {
		t.Set(mt.Type, mt.tree(l))
	}
	return t
}

// Response describes a single response of an operation.
//
// See: https://spec.openapis.org/oas/v3.0.2#response-object
type Response struct {
	// Status is an HTTP status code or "default".
	Status      string
	Description string
	Content     []*MediaType
}

// ToTree implements Node.
func (r *Response) ToTree() *Tree {
	if r == nil {
		return nil
	}
	return r.tree(&schemaLowerer{prefix: componentsSchemaPrefix})
}

func (r *Response) tree(l *schemaLowerer) *Tree {
	t := NewTree()
	// description is required even when empty.
	t.Set("description", r.Description)
	setTree(t, "content", contentTree(r.Content, l))
	return t
}

// responseDescription returns the description to use for a status,
// falling back to the HTTP status text.
func responseDescription(status int, description string) string {
	if description != "" {
		return description
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Status " + strconv.Itoa(status)
}

// OperationBuilder provides a fluent API for describing a handler.
type OperationBuilder struct {
	meta *OperationMeta
}

// Meta returns the metadata being built.
func (b *OperationBuilder) Meta() *OperationMeta {
	return b.meta
}

// Summary sets a short summary of what the operation does.
func (b *OperationBuilder) Summary(s string) *OperationBuilder {
	b.meta.Summary = s
	return b
}

// Description sets a verbose explanation of the operation behavior.
func (b *OperationBuilder) Description(d string) *OperationBuilder {
	b.meta.Description = d
	return b
}

// Tags appends tags for logical grouping.
func (b *OperationBuilder) Tags(tags ...string) *OperationBuilder {
	for _, tag := range tags {
		if !slices.Contains(b.meta.Tags, tag) {
			b.meta.Tags = append(b.meta.Tags, tag)
		}
	}
	return b
}

// Deprecated marks the operation as deprecated.
func (b *OperationBuilder) Deprecated() *OperationBuilder {
	b.meta.Deprecated = true
	return b
}

// Request declares an application/json request body. body is a *Schema
// or a Go value reflected with SchemaOf.
func (b *OperationBuilder) Request(body any) *OperationBuilder {
	return b.RequestContent("application/json", body)
}

// RequestContent declares the request body for a media type. A nil body
// declares the media type without a schema. Declaring a media type again
// replaces its schema and keeps its position.
func (b *OperationBuilder) RequestContent(mediaType string, body any) *OperationBuilder {
	rb := b.requestBody()
	if mt, ok := rb.Lookup(mediaType); ok {
		mt.Schema = SchemaOf(body)
		return b
	}
	rb.Content = append(rb.Content, &MediaType{Type: mediaType, Schema: SchemaOf(body)})
	return b
}

// RequestDescription sets the request body description.
func (b *OperationBuilder) RequestDescription(d string) *OperationBuilder {
	b.requestBody().Description = d
	return b
}

// RequestRequired marks the request body as required.
func (b *OperationBuilder) RequestRequired() *OperationBuilder {
	b.requestBody().Required = true
	return b
}

// RequestRefName stores the request body under components.requestBodies.
func (b *OperationBuilder) RequestRefName(name string) *OperationBuilder {
	b.requestBody().RefName = name
	return b
}

// RequestBodyFrom borrows the request body declared for another handler.
func (b *OperationBuilder) RequestBodyFrom(handler any) *OperationBuilder {
	b.meta.RequestBody = nil
	b.meta.RequestBodyRef = handler
	return b
}

func (b *OperationBuilder) requestBody() *RequestBody {
	if b.meta.RequestBody == nil {
		b.meta.RequestBody = &RequestBody{}
		b.meta.RequestBodyRef = nil
	}
	return b.meta.RequestBody
}

// Response declares an application/json response for a status code.
// A nil body declares a response without content. An empty description
// falls back to the HTTP status text.
func (b *OperationBuilder) Response(status int, description string, body any) *OperationBuilder {
	return b.ResponseContent(status, description, "application/json", body)
}

// ResponseContent declares a response for a status code and media type.
func (b *OperationBuilder) ResponseContent(status int, description, mediaType string, body any) *OperationBuilder {
	b.addResponse(strconv.Itoa(status), responseDescription(status, description), mediaType, body)
	return b
}

// DefaultResponse declares the catch-all response.
func (b *OperationBuilder) DefaultResponse(description string, body any) *OperationBuilder {
	b.addResponse(DefaultStatus, description, "application/json", body)
	return b
}

func (b *OperationBuilder) addResponse(status, description, mediaType string, body any) {
	r := b.meta.response(status)
	if r == nil {
		r = &Response{Status: status}
		b.meta.Responses = append(b.meta.Responses, r)
	}
	r.Description = description

	s := SchemaOf(body)
	if s == nil {
		return
	}
	for _, mt := range r.Content {
		if mt.Type == mediaType {
			mt.Schema = s
			return
		}
	}
	r.Content = append(r.Content, &MediaType{Type: mediaType, Schema: s})
}
