// Package openapi derives OpenAPI 3.0.2 documents and request body JSON
// Schemas from mux routes and the metadata attached to their handlers.
//
// See: https://spec.openapis.org/oas/v3.0.2
//
// # Describing Handlers
//
// Metadata is looked up by handler through a MetadataReader. The Registry
// is the default reader; it is keyed by handler identity, so the same
// function registered on several routes shares its description:
//
//	reg := openapi.NewRegistry()
//	reg.Describe(createPet).
//	    Summary("Create a pet").
//	    Tags("pets").
//	    Request(NewPet{}).
//	    Response(http.StatusCreated, "", Pet{})
//
// Handlers may also carry their own metadata by implementing Describer.
//
// A handler can borrow the request body of another one:
//
//	reg.Describe(replacePet).RequestBodyFrom(createPet)
//
// Groups apply shared tags and responses:
//
//	pets := reg.Group().Tags("pets").DefaultResponse("Unexpected error", Problem{})
//	pets.Describe(listPets).Summary("List pets")
//
// # Schemas
//
// Request and response bodies are *Schema fragments or Go values reflected
// with SchemaOf. Struct fields follow encoding/json naming; the `openapi`
// tag adds constraints:
//
//	type NewPet struct {
//	    Name string `json:"name" openapi:"minLength=1,description=Pet name"`
//	    Tag  string `json:"tag,omitempty" openapi:"enum=dog|cat"`
//	}
//
// Named fragments (named struct types, or fragments with a RefName) render
// as references. In documents they are registered once under
// components.schemas; in request body schemas under definitions.
//
// # Documents
//
//	doc := openapi.NewDocument(openapi.Info{Title: "Pets", Version: "1.0.0"},
//	    openapi.WithMetadataReader(reg))
//	if err := doc.AddRouter(r); err != nil {
//	    log.Fatal(err)
//	}
//	data, err := doc.ToJSON(openapi.JSONPretty)
//
// Each route yields one operation under its normalized path template, for
// every method it answers to. Path placeholders become path parameters;
// placeholders inside optional groups are not required. Operations that
// declare responses without a catch-all get a default response pointing at
// the shared Error schema.
//
// Handle serves the document as JSON and YAML together with an interactive
// documentation page.
//
// # Request Body Schemas
//
//	b := openapi.NewSchemaBuilder(reg, openapi.WithSchemaCache(openapi.NewMemorySchemaCache()))
//	schema, err := b.ForRequestBody(createPet, "application/json")
//
// The result is nil when the handler declares nothing to validate. An
// *UnsupportedMediaTypeError is returned when the handler declares a
// request body without the requested media type.
package openapi
