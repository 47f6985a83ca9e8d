package openapi

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/pb33f/libopenapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/oaspec/mux"
	"gopkg.in/yaml.v3"
)

type testPet struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Tag  string `json:"tag,omitempty"`
}

type testNewPet struct {
	Name string `json:"name" openapi:"minLength=1"`
	Tag  string `json:"tag,omitempty"`
}

func listPets(http.ResponseWriter, *http.Request)  {}
func readPet(http.ResponseWriter, *http.Request)   {}
func createPet(http.ResponseWriter, *http.Request) {}
func updatePet(http.ResponseWriter, *http.Request) {}
func ping(http.ResponseWriter, *http.Request)      {}

func testInfo() Info {
	return Info{Title: "Pets", Version: "1.0.0"}
}

func TestNewDocument(t *testing.T) {
	t.Run("renders minimal document", func(t *testing.T) {
		doc := NewDocument(testInfo())

		data, err := doc.ToJSON(0)
		require.NoError(t, err)
		assert.Equal(t, `{"openapi":"3.0.2","info":{"title":"Pets","version":"1.0.0"}}`, string(data))
	})

	t.Run("panics without title", func(t *testing.T) {
		assert.Panics(t, func() {
			NewDocument(Info{Version: "1.0.0"})
		})
	})

	t.Run("panics without version", func(t *testing.T) {
		assert.Panics(t, func() {
			NewDocument(Info{Title: "Pets"})
		})
	})

	t.Run("returns info", func(t *testing.T) {
		doc := NewDocument(testInfo())
		assert.Equal(t, "Pets", doc.Info().Title)
	})
}

func TestDocumentTopLevelOrder(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/ping", ping).Methods(http.MethodGet).Name("ping")

	doc := NewDocument(testInfo())
	doc.SetExternalDocs(&ExternalDocs{URL: "https://example.com/docs"})
	doc.AddTag(&Tag{Name: "pets"})
	doc.AddSecurityRequirement(&SecurityRequirement{Name: "bearer"})
	doc.AddComponentObject(BearerAuth("bearer", "JWT"))
	doc.AddServer(&Server{URL: "https://api.example.com"})
	require.NoError(t, doc.AddRouter(r))

	var keys []string
	tree := doc.ToTree()
	for pair := tree.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}

	assert.Equal(t, []string{
		"openapi", "info", "servers", "paths", "components", "security", "tags", "externalDocs",
	}, keys)
}

func TestDocumentAddRoute(t *testing.T) {
	t.Run("inline request body without responses", func(t *testing.T) {
		reg := NewRegistry()
		reg.Describe(createPet).
			Summary("Create a pet").
			RequestContent("application/json", NewObject(Prop("name", NewString())).WithRequired("name")).
			RequestRequired()

		r := mux.NewRouter()
		r.HandleFunc("/pets", createPet).Methods(http.MethodPost).Name("pets.create")

		doc := NewDocument(testInfo(), WithMetadataReader(reg))
		require.NoError(t, doc.AddRouter(r))

		data, err := doc.ToJSON(0)
		require.NoError(t, err)
		assert.Equal(t, `{"openapi":"3.0.2","info":{"title":"Pets","version":"1.0.0"},`+
			`"paths":{"/pets":{"post":{"operationId":"pets.create","summary":"Create a pet",`+
			`"requestBody":{"content":{"application/json":{"schema":{"properties":{"name":{"type":"string"}},`+
			`"required":["name"],"type":"object"}}},"required":true}}}}}`, string(data))
	})

	t.Run("responses get a default error response", func(t *testing.T) {
		reg := NewRegistry()
		reg.Describe(readPet).
			Summary("Read a pet").
			Tags("pets").
			Response(http.StatusOK, "", testPet{})

		r := mux.NewRouter()
		r.HandleFunc(`/pets/{id<\d+>}`, readPet).Methods(http.MethodGet).Name("pets.read")

		doc := NewDocument(testInfo(), WithMetadataReader(reg))
		require.NoError(t, doc.AddRouter(r))

		data, err := doc.ToJSON(JSONPretty)
		require.NoError(t, err)

		assert.JSONEq(t, `{
			"openapi": "3.0.2",
			"info": {"title": "Pets", "version": "1.0.0"},
			"paths": {
				"/pets/{id}": {
					"get": {
						"operationId": "pets.read",
						"tags": ["pets"],
						"summary": "Read a pet",
						"parameters": [
							{"name": "id", "in": "path", "required": true, "schema": {"pattern": "\\d+", "type": "string"}}
						],
						"responses": {
							"200": {
								"description": "OK",
								"content": {"application/json": {"schema": {"$ref": "#/components/schemas/testPet"}}}
							},
							"default": {
								"description": "Any error",
								"content": {"application/json": {"schema": {"$ref": "#/components/schemas/Error"}}}
							}
						}
					}
				}
			},
			"components": {
				"schemas": {
					"testPet": {
						"properties": {
							"id": {"format": "int64", "type": "integer"},
							"name": {"type": "string"},
							"tag": {"type": "string"}
						},
						"required": ["id", "name"],
						"type": "object"
					},
					"Error": {
						"properties": {
							"code": {"format": "int32", "type": "integer"},
							"message": {"type": "string"}
						},
						"required": ["code", "message"],
						"type": "object"
					}
				}
			}
		}`, string(data))

		assert.True(t, strings.HasPrefix(string(data), "{\n    \"openapi\""))
	})

	t.Run("declared default response is kept last", func(t *testing.T) {
		reg := NewRegistry()
		reg.Describe(listPets).
			DefaultResponse("Unexpected", nil).
			Response(http.StatusOK, "Pets", []testPet{})

		r := mux.NewRouter()
		r.HandleFunc("/pets", listPets).Methods(http.MethodGet)

		doc := NewDocument(testInfo(), WithMetadataReader(reg))
		require.NoError(t, doc.AddRouter(r))

		op := operationTree(t, doc, "/pets", "get")
		v, ok := op.Get("responses")
		require.True(t, ok)
		responses := v.(*Tree)

		var statuses []string
		for pair := responses.Oldest(); pair != nil; pair = pair.Next() {
			statuses = append(statuses, pair.Key)
		}
		assert.Equal(t, []string{"200", "default"}, statuses)

		def, _ := responses.Get("default")
		desc, _ := def.(*Tree).Get("description")
		assert.Equal(t, "Unexpected", desc)

		components, _ := doc.ToTree().Get("components")
		schemas, _ := components.(*Tree).Get("schemas")
		_, hasError := schemas.(*Tree).Get("Error")
		assert.False(t, hasError)
	})

	t.Run("one operation per method", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc("/pets", updatePet).Methods(http.MethodPut, http.MethodPatch).Name("pets.update")

		doc := NewDocument(testInfo())
		require.NoError(t, doc.AddRouter(r))

		paths, _ := doc.ToTree().Get("paths")
		item, _ := paths.(*Tree).Get("/pets")
		put, _ := item.(*Tree).Get("put")
		patch, _ := item.(*Tree).Get("patch")
		require.NotNil(t, put)
		assert.NotSame(t, put, patch)

		putJSON, err := EncodeJSON(put, 0)
		require.NoError(t, err)
		patchJSON, err := EncodeJSON(patch, 0)
		require.NoError(t, err)
		assert.Equal(t, string(putJSON), string(patchJSON))

		put.(*Tree).Set("summary", "changed")
		_, ok := patch.(*Tree).Get("summary")
		assert.False(t, ok)
	})

	t.Run("rendered tree is a copy", func(t *testing.T) {
		reg := NewRegistry()
		reg.Describe(createPet).Request(testNewPet{}).Response(http.StatusCreated, "", testPet{})

		r := mux.NewRouter()
		r.HandleFunc("/pets", createPet).Methods(http.MethodPost).Name("pets.create")

		doc := NewDocument(testInfo(), WithMetadataReader(reg))
		require.NoError(t, doc.AddRouter(r))

		before, err := doc.ToJSON(0)
		require.NoError(t, err)

		tree := doc.ToTree()
		paths, _ := tree.Get("paths")
		paths.(*Tree).Set("/other", NewTree())
		components, _ := tree.Get("components")
		schemas, _ := components.(*Tree).Get("schemas")
		schemas.(*Tree).Delete("testPet")
		op := operationTree(t, doc, "/pets", "post")
		op.Set("operationId", "renamed")

		after, err := doc.ToJSON(0)
		require.NoError(t, err)
		assert.Equal(t, string(before), string(after))
	})

	t.Run("route description overrides metadata", func(t *testing.T) {
		reg := NewRegistry()
		reg.Describe(listPets).Summary("from metadata").Tags("meta")

		r := mux.NewRouter()
		r.HandleFunc("/pets", listPets).Methods(http.MethodGet).Summary("from route").Tags("route")

		doc := NewDocument(testInfo(), WithMetadataReader(reg))
		require.NoError(t, doc.AddRouter(r))

		op := operationTree(t, doc, "/pets", "get")
		summary, _ := op.Get("summary")
		tags, _ := op.Get("tags")
		assert.Equal(t, "from route", summary)
		assert.Equal(t, []string{"route"}, tags)
	})

	t.Run("optional and constrained parameters", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc(`/foo(/{a<\d+>})/{b<\w+>}/{c}`, ping).Methods(http.MethodGet)

		doc := NewDocument(testInfo())
		require.NoError(t, doc.AddRouter(r))

		op := operationTree(t, doc, "/foo/{a}/{b}/{c}", "get")
		data, err := EncodeJSON(op, 0)
		require.NoError(t, err)
		assert.Equal(t, `{"parameters":[`+
			`{"name":"a","in":"path","required":false,"schema":{"pattern":"\\d+","type":"string"}},`+
			`{"name":"b","in":"path","required":true,"schema":{"pattern":"\\w+","type":"string"}},`+
			`{"name":"c","in":"path","required":true}]}`, string(data))
	})

	t.Run("skips undescribed operations when excluded", func(t *testing.T) {
		reg := NewRegistry()
		reg.Describe(listPets).Summary("List")

		r := mux.NewRouter()
		r.HandleFunc("/pets", listPets).Methods(http.MethodGet)
		r.HandleFunc("/ping", ping).Methods(http.MethodGet)

		doc := NewDocument(testInfo(), WithMetadataReader(reg)).IncludeUndescribedOperations(false)
		require.NoError(t, doc.AddRouter(r))

		paths, _ := doc.ToTree().Get("paths")
		_, hasPets := paths.(*Tree).Get("/pets")
		_, hasPing := paths.(*Tree).Get("/ping")
		assert.True(t, hasPets)
		assert.False(t, hasPing)
	})

	t.Run("route level description counts as described", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc("/ping", ping).Methods(http.MethodGet).Description("Health check")

		doc := NewDocument(testInfo()).IncludeUndescribedOperations(false)
		require.NoError(t, doc.AddRouter(r))

		operationTree(t, doc, "/ping", "get")
	})

	t.Run("skips routes without methods", func(t *testing.T) {
		r := mux.NewRouter()
		r.HandleFunc("/any", ping)

		doc := NewDocument(testInfo())
		require.NoError(t, doc.AddRouter(r))

		_, ok := doc.ToTree().Get("paths")
		assert.False(t, ok)
	})

	t.Run("request body reference renders a component reference", func(t *testing.T) {
		reg := NewRegistry()
		reg.Describe(createPet).Request(testNewPet{}).RequestRefName("NewPet").RequestRequired()
		reg.Describe(updatePet).RequestBodyFrom(createPet)

		r := mux.NewRouter()
		r.HandleFunc("/pets", createPet).Methods(http.MethodPost)
		r.HandleFunc("/pets/{id}", updatePet).Methods(http.MethodPut)

		doc := NewDocument(testInfo(), WithMetadataReader(reg))
		require.NoError(t, doc.AddRouter(r))

		for _, tc := range []struct{ path, method string }{
			{"/pets", "post"},
			{"/pets/{id}", "put"},
		} {
			op := operationTree(t, doc, tc.path, tc.method)
			body, _ := op.Get("requestBody")
			ref, _ := body.(*Tree).Get("$ref")
			assert.Equal(t, "#/components/requestBodies/NewPet", ref)
		}

		data, err := doc.ToJSON(0)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"requestBodies":{"NewPet":{"content":{"application/json":{"schema":{"$ref":"#/components/schemas/testNewPet"}}},"required":true}}`)
		assert.Contains(t, string(data), `"testNewPet":{"properties":{"name":{"minLength":1,"type":"string"},"tag":{"type":"string"}},"required":["name"],"type":"object"}`)
	})

	t.Run("unnamed referenced body is inlined", func(t *testing.T) {
		reg := NewRegistry()
		reg.Describe(createPet).Request(NewObject(Prop("name", NewString())))
		reg.Describe(updatePet).RequestBodyFrom(createPet)

		r := mux.NewRouter()
		r.HandleFunc("/pets/{id}", updatePet).Methods(http.MethodPut)

		doc := NewDocument(testInfo(), WithMetadataReader(reg))
		require.NoError(t, doc.AddRouter(r))

		op := operationTree(t, doc, "/pets/{id}", "put")
		body, _ := op.Get("requestBody")
		_, hasContent := body.(*Tree).Get("content")
		assert.True(t, hasContent)
	})

	t.Run("reference to a handler without body is misconfigured", func(t *testing.T) {
		reg := NewRegistry()
		reg.Describe(listPets).Summary("List")
		reg.Describe(updatePet).RequestBodyFrom(listPets)

		r := mux.NewRouter()
		r.HandleFunc("/pets/{id}", updatePet).Methods(http.MethodPut).Name("pets.update")

		doc := NewDocument(testInfo(), WithMetadataReader(reg))
		err := doc.AddRouter(r)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMisconfigured))
		assert.Contains(t, err.Error(), "pets.update")
	})

	t.Run("handlers implementing Describer", func(t *testing.T) {
		r := mux.NewRouter()
		r.Handle("/described", describedHandler{}).Methods(http.MethodPost)

		doc := NewDocument(testInfo())
		require.NoError(t, doc.AddRouter(r))

		op := operationTree(t, doc, "/described", "post")
		summary, _ := op.Get("summary")
		assert.Equal(t, "Described", summary)
	})
}

func TestDocumentAddComponentObject(t *testing.T) {
	t.Run("last write wins", func(t *testing.T) {
		doc := NewDocument(testInfo())
		doc.AddComponentObject(NewString().Named("Name"))
		doc.AddComponentObject(NewInteger().Named("Name"))

		data, err := doc.ToJSON(0)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"components":{"schemas":{"Name":{"type":"integer"}}}`)
	})

	t.Run("nested named fragments become sibling components", func(t *testing.T) {
		owner := NewObject(Prop("name", NewString())).Named("Owner")
		pet := NewObject(Prop("owner", owner)).Named("Pet")

		doc := NewDocument(testInfo())
		doc.AddComponentObject(pet)

		data, err := doc.ToJSON(0)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"schemas":{"Pet":{"properties":{"owner":{"$ref":"#/components/schemas/Owner"}},"type":"object"},"Owner":{"properties":{"name":{"type":"string"}},"type":"object"}}`)
	})

	t.Run("security schemes", func(t *testing.T) {
		doc := NewDocument(testInfo())
		doc.AddComponentObject(APIKeyAuth("key", "header", "X-API-Key"))

		data, err := doc.ToJSON(0)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"securitySchemes":{"key":{"type":"apiKey","name":"X-API-Key","in":"header"}}`)
	})
}

func TestDocumentSerialization(t *testing.T) {
	build := func(t *testing.T) *Document {
		t.Helper()

		reg := NewRegistry()
		reg.Describe(createPet).
			Summary("Create a pet").
			Tags("pets").
			Request(testNewPet{}).
			Response(http.StatusCreated, "", testPet{})
		reg.Describe(readPet).Summary("Read a pet").Tags("pets").Response(http.StatusOK, "", testPet{})

		r := mux.NewRouter()
		r.HandleFunc("/pets", createPet).Methods(http.MethodPost).Name("pets.create")
		r.HandleFunc(`/pets/{id<\d+>}`, readPet).Methods(http.MethodGet).Name("pets.read")

		doc := NewDocument(Info{
			Title:   "Pets",
			Version: "1.0.0",
			License: &License{Name: "MIT"},
		}, WithMetadataReader(reg))
		doc.AddServer(&Server{URL: "https://api.example.com"})
		doc.AddTag(&Tag{Name: "pets", Description: "Pet operations"})
		require.NoError(t, doc.AddRouter(r))

		return doc
	}

	t.Run("ToJSON equals EncodeJSON of ToTree", func(t *testing.T) {
		doc := build(t)

		for _, flags := range []JSONFlag{0, JSONPretty} {
			got, err := doc.ToJSON(flags)
			require.NoError(t, err)
			want, err := EncodeJSON(doc.ToTree(), flags)
			require.NoError(t, err)
			assert.Equal(t, string(want), string(got))
		}
	})

	t.Run("ToYAML keeps key order", func(t *testing.T) {
		data, err := build(t).ToYAML()
		require.NoError(t, err)

		text := string(data)
		assert.True(t, strings.HasPrefix(text, "openapi: 3.0.2\n"))
		assert.Less(t, strings.Index(text, "\ninfo:"), strings.Index(text, "\nservers:"))
		assert.Less(t, strings.Index(text, "\nservers:"), strings.Index(text, "\npaths:"))
		assert.Less(t, strings.Index(text, "\npaths:"), strings.Index(text, "\ncomponents:"))
		assert.Less(t, strings.Index(text, "\ncomponents:"), strings.Index(text, "\ntags:"))

		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(data, &decoded))
		assert.Equal(t, "3.0.2", decoded["openapi"])
	})

	t.Run("parses as a valid OpenAPI document", func(t *testing.T) {
		data, err := build(t).ToJSON(JSONPretty)
		require.NoError(t, err)

		d, err := libopenapi.NewDocument(data)
		require.NoError(t, err)

		model, errs := d.BuildV3Model()
		require.Empty(t, errs)
		require.NotNil(t, model)
		assert.Equal(t, "3.0.2", model.Model.Version)
		assert.Equal(t, "Pets", model.Model.Info.Title)
	})
}

type describedHandler struct{}

func (describedHandler) ServeHTTP(http.ResponseWriter, *http.Request) {}

func (describedHandler) OpenAPIOperation() *OperationMeta {
	return &OperationMeta{Summary: "Described"}
}

func operationTree(t *testing.T, doc *Document, path, method string) *Tree {
	t.Helper()

	paths, ok := doc.ToTree().Get("paths")
	require.True(t, ok, "document has no paths")

	item, ok := paths.(*Tree).Get(path)
	require.True(t, ok, "path %s missing", path)

	op, ok := item.(*Tree).Get(method)
	require.True(t, ok, "operation %s %s missing", method, path)

	return op.(*Tree)
}
