package openapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vitalvas/oaspec/mux"
	"gopkg.in/yaml.v3"
)

// Version is the OpenAPI version of assembled documents.
const Version = "3.0.2"

// ErrMisconfigured is returned when handler metadata cannot be resolved,
// such as a request body reference to a handler without a request body.
var ErrMisconfigured = errors.New("openapi: misconfigured operation metadata")

// RouteDescriptor is the view of a route needed to document it.
// *mux.Route implements it.
type RouteDescriptor interface {
	GetName() string
	GetMethods() []string
	GetPath() string
	GetHandler() http.Handler
	GetTags() []string
	GetSummary() string
	GetDescription() string
}

// Document assembles an OpenAPI document from routes and handler
// metadata. A Document is not safe for concurrent writes.
//
// See: https://spec.openapis.org/oas/v3.0.2#openapi-object
type Document struct {
	info         Info
	servers      []*Server
	paths        *Tree
	components   *Tree
	security     []*SecurityRequirement
	tags         []*Tag
	externalDocs *ExternalDocs

	includeUndescribed bool
	reader             MetadataReader
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithMetadataReader sets the reader used to look up handler metadata.
// The default reads handlers implementing Describer only.
func WithMetadataReader(r MetadataReader) DocumentOption {
	return func(d *Document) {
		if r != nil {
			d.reader = r
		}
	}
}

// NewDocument returns a Document for the API described by info. It
// panics when info lacks a title or version.
func NewDocument(info Info, opts ...DocumentOption) *Document {
	if err := info.Validate(); err != nil {
		panic(fmt.Sprintf("openapi: invalid info: %v", err))
	}

	d := &Document{
		info:               info,
		paths:              NewTree(),
		components:         NewTree(),
		includeUndescribed: true,
		reader:             DescriberReader{},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Info returns the document info.
func (d *Document) Info() Info {
	return d.info
}

// AddServer appends servers in call order.
func (d *Document) AddServer(servers ...*Server) *Document {
	d.servers = append(d.servers, servers...)
	return d
}

// AddTag appends tags in call order.
func (d *Document) AddTag(tags ...*Tag) *Document {
	d.tags = append(d.tags, tags...)
	return d
}

// AddSecurityRequirement appends security requirements in call order.
func (d *Document) AddSecurityRequirement(reqs ...*SecurityRequirement) *Document {
	d.security = append(d.security, reqs...)
	return d
}

// SetExternalDocs sets the document external documentation.
func (d *Document) SetExternalDocs(docs *ExternalDocs) *Document {
	d.externalDocs = docs
	return d
}

// IncludeUndescribedOperations controls whether routes without any
// description are documented. The default is true.
func (d *Document) IncludeUndescribedOperations(include bool) *Document {
	d.includeUndescribed = include
	return d
}

// AddComponentObject stores objects under components[group][name]. A
// later object with the same group and name replaces the earlier one.
// Named fragments nested in a schema are stored as sibling schemas.
func (d *Document) AddComponentObject(objs ...ComponentObject) *Document {
	for _, obj := range objs {
		group := treeGroup(d.components, obj.ComponentName())
		name := obj.ReferenceName()

		switch o := obj.(type) {
		case *Schema:
			if _, ok := group.Get(name); !ok {
				group.Set(name, nil)
			}
			group.Set(name, d.lowerer().body(o))
		case *RequestBody:
			group.Set(name, o.tree(d.lowerer()))
		default:
			group.Set(name, obj.ToTree())
		}
	}
	return d
}

// AddRouter documents every route of r in registration order.
func (d *Document) AddRouter(r *mux.Router) error {
	return r.Walk(func(route *mux.Route, _ *mux.Router) error {
		return d.AddRoute(route)
	})
}

// AddRoute documents routes. Each route yields one operation placed
// under its normalized path template for every method it answers to.
// Routes without methods or with an invalid path are skipped.
func (d *Document) AddRoute(routes ...RouteDescriptor) error {
	for _, route := range routes {
		if err := d.addRoute(route); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) addRoute(route RouteDescriptor) error {
	methods := route.GetMethods()
	if len(methods) == 0 {
		return nil
	}

	pattern, err := mux.ParsePattern(route.GetPath())
	if err != nil || pattern.Template() == "" {
		return nil
	}

	var meta *OperationMeta
	if h := route.GetHandler(); h != nil {
		meta = d.reader.ReadMetadata(h)
	}

	if !d.includeUndescribed && !routeDescribes(route) && !meta.describes() {
		return nil
	}

	op, err := d.operation(route, pattern, meta)
	if err != nil {
		return fmt.Errorf("route %q: %w", route.GetName(), err)
	}

	item := treeGroup(d.paths, pattern.Template())
	for i, method := range methods {
		if i > 0 {
			op = cloneTree(op)
		}
		item.Set(strings.ToLower(method), op)
	}

	return nil
}

func routeDescribes(route RouteDescriptor) bool {
	return len(route.GetTags()) > 0 || route.GetSummary() != "" || route.GetDescription() != ""
}

// operation renders one operation object.
//
// See: https://spec.openapis.org/oas/v3.0.2#operation-object
func (d *Document) operation(route RouteDescriptor, pattern *mux.Pattern, meta *OperationMeta) (*Tree, error) {
	op := NewTree()
	setString(op, "operationId", route.GetName())

	tags := route.GetTags()
	summary := route.GetSummary()
	description := route.GetDescription()
	if meta != nil {
		if len(tags) == 0 {
			tags = meta.Tags
		}
		if summary == "" {
			summary = meta.Summary
		}
		if description == "" {
			description = meta.Description
		}
	}

	if len(tags) > 0 {
		op.Set("tags", tags)
	}
	setString(op, "summary", summary)
	setString(op, "description", description)

	if params := pathParameters(pattern); params != nil {
		op.Set("parameters", params)
	}

	if meta == nil {
		return op, nil
	}

	body, err := d.requestBody(meta)
	if err != nil {
		return nil, err
	}
	if body != nil {
		op.Set("requestBody", body)
	}

	setTree(op, "responses", d.responses(meta))

	if meta.Deprecated {
		op.Set("deprecated", true)
	}

	return op, nil
}

func (d *Document) requestBody(meta *OperationMeta) (*Tree, error) {
	body, err := resolveRequestBody(d.reader, meta)
	if err != nil || body == nil {
		return nil, err
	}

	if body.RefName == "" {
		return body.tree(d.lowerer()), nil
	}

	group := treeGroup(d.components, body.ComponentName())
	if _, ok := group.Get(body.RefName); !ok {
		group.Set(body.RefName, body.tree(d.lowerer()))
	}

	ref := NewTree()
	ref.Set("$ref", "#/components/requestBodies/"+body.RefName)

	return ref, nil
}

// responses renders declared responses in order with the catch-all last.
// Operations declaring responses without a catch-all get one pointing at
// the shared Error schema.
func (d *Document) responses(meta *OperationMeta) *Tree {
	if len(meta.Responses) == 0 {
		return nil
	}

	l := d.lowerer()
	t := NewTree()

	for _, r := range meta.Responses {
		if r.Status != DefaultStatus {
			t.Set(r.Status, r.tree(l))
		}
	}

	def := meta.response(DefaultStatus)
	if def == nil {
		def = &Response{
			Status:      DefaultStatus,
			Description: "Any error",
			Content:     []*MediaType{{Type: "application/json", Schema: errorSchema()}},
		}
	}
	t.Set(DefaultStatus, def.tree(l))

	return t
}

func (d *Document) lowerer() *schemaLowerer {
	return &schemaLowerer{
		prefix: componentsSchemaPrefix,
		table: func() *Tree {
			return treeGroup(d.components, "schemas")
		},
	}
}

// resolveRequestBody returns the request body of meta, following
// references to other handlers.
func resolveRequestBody(reader MetadataReader, meta *OperationMeta) (*RequestBody, error) {
	seen := make(map[string]bool)

	for meta != nil {
		if meta.RequestBody != nil {
			return meta.RequestBody, nil
		}
		if meta.RequestBodyRef == nil {
			return nil, nil
		}

		id := HandlerIdentity(meta.RequestBodyRef)
		if seen[id] {
			return nil, fmt.Errorf("%w: request body reference cycle through %s", ErrMisconfigured, id)
		}
		seen[id] = true

		target := reader.ReadMetadata(meta.RequestBodyRef)
		if !target.hasRequestBody() {
			return nil, fmt.Errorf("%w: %s declares no request body", ErrMisconfigured, id)
		}
		meta = target
	}

	return nil, nil
}

// ToTree renders the document. Empty members are omitted. The result
// is a copy; changing it leaves the document untouched.
func (d *Document) ToTree() *Tree {
	t := NewTree()
	t.Set("openapi", Version)
	t.Set("info", d.info.ToTree())

	if list := nodeList(d.servers); list != nil {
		t.Set("servers", list)
	}

	setTree(t, "paths", cloneTree(d.paths))

	components := NewTree()
	for pair := d.components.Oldest(); pair != nil; pair = pair.Next() {
		if group, ok := pair.Value.(*Tree); ok {
			setTree(components, pair.Key, cloneTree(group))
		}
	}
	setTree(t, "components", components)

	if list := nodeList(d.security); list != nil {
		t.Set("security", list)
	}
	if list := nodeList(d.tags); list != nil {
		t.Set("tags", list)
	}
	if d.externalDocs != nil {
		setNode(t, "externalDocs", d.externalDocs)
	}

	return t
}

func nodeList[T Node](nodes []T) []any {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ToTree())
	}
	return out
}

// ToJSON encodes the document as JSON. The output equals EncodeJSON of
// ToTree with the same flags.
func (d *Document) ToJSON(flags JSONFlag) ([]byte, error) {
	return EncodeJSON(d.ToTree(), flags)
}

// ToYAML encodes the document as YAML.
func (d *Document) ToYAML() ([]byte, error) {
	return yaml.Marshal(d.ToTree())
}
