package openapi

import (
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Info provides metadata about the API.
//
// See: https://spec.openapis.org/oas/v3.0.2#info-object
type Info struct {
	Title          string
	Description    string
	TermsOfService string
	Contact        *Contact
	License        *License
	Version        string
}

// Validate checks the required members.
func (i Info) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Title, validation.Required),
		validation.Field(&i.Version, validation.Required),
		validation.Field(&i.TermsOfService, is.URL),
		validation.Field(&i.License),
	)
}

// ToTree implements Node.
func (i Info) ToTree() *Tree {
	t := NewTree()
	setString(t, "title", i.Title)
	setString(t, "description", i.Description)
	setString(t, "termsOfService", i.TermsOfService)
	if i.Contact != nil {
		setNode(t, "contact", i.Contact)
	}
	if i.License != nil {
		setNode(t, "license", i.License)
	}
	setString(t, "version", i.Version)
	return t
}

// Contact information for the exposed API.
//
// See: https://spec.openapis.org/oas/v3.0.2#contact-object
type Contact struct {
	Name  string
	URL   string
	Email string
}

// ToTree implements Node.
func (c *Contact) ToTree() *Tree {
	t := NewTree()
	setString(t, "name", c.Name)
	setString(t, "url", c.URL)
	setString(t, "email", c.Email)
	return t
}

// License information for the exposed API.
//
// See: https://spec.openapis.org/oas/v3.0.2#license-object
type License struct {
	Name string
	URL  string
}

// Validate checks the required members.
func (l *License) Validate() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.Name, validation.Required),
	)
}

// ToTree implements Node.
func (l *License) ToTree() *Tree {
	t := NewTree()
	setString(t, "name", l.Name)
	setString(t, "url", l.URL)
	return t
}

// Server represents a server hosting the API.
//
// See: https://spec.openapis.org/oas/v3.0.2#server-object
type Server struct {
	URL         string
	Description string
	Variables   []*ServerVariable
}

// ToTree implements Node.
func (s *Server) ToTree() *Tree {
	t := NewTree()
	setString(t, "url", s.URL)
	setString(t, "description", s.Description)
	if len(s.Variables) > 0 {
		vars := NewTree()
		for _, v := range s.Variables {
			vars.Set(v.Name, v.ToTree())
		}
		t.Set("variables", vars)
	}
	return t
}

// ServerVariable is a substitution variable of a server URL template.
//
// See: https://spec.openapis.org/oas/v3.0.2#server-variable-object
type ServerVariable struct {
	Name        string
	Enum        []string
	Default     string
	Description string
}

// ToTree implements Node.
func (v *ServerVariable) ToTree() *Tree {
	t := NewTree()
	if len(v.Enum) > 0 {
		t.Set("enum", slices.Clone(v.Enum))
	}
	// default is required even when empty.
	t.Set("default", v.Default)
	setString(t, "description", v.Description)
	return t
}

// Tag adds metadata to a tag used by operations.
//
// See: https://spec.openapis.org/oas/v3.0.2#tag-object
type Tag struct {
	Name         string
	Description  string
	ExternalDocs *ExternalDocs
}

// ToTree implements Node.
func (tag *Tag) ToTree() *Tree {
	t := NewTree()
	setString(t, "name", tag.Name)
	setString(t, "description", tag.Description)
	if tag.ExternalDocs != nil {
		setNode(t, "externalDocs", tag.ExternalDocs)
	}
	return t
}

// SecurityRequirement names a security scheme and the scopes it needs.
//
// See: https://spec.openapis.org/oas/v3.0.2#security-requirement-object
type SecurityRequirement struct {
	Name   string
	Scopes []string
}

// ToTree implements Node. Scopes always render as a list.
func (r *SecurityRequirement) ToTree() *Tree {
	scopes := make([]string, 0, len(r.Scopes))
	scopes = append(scopes, r.Scopes...)

	t := NewTree()
	t.Set(r.Name, scopes)
	return t
}

// ExternalDocs references external documentation.
//
// See: https://spec.openapis.org/oas/v3.0.2#external-documentation-object
type ExternalDocs struct {
	Description string
	URL         string
}

// ToTree implements Node.
func (d *ExternalDocs) ToTree() *Tree {
	t := NewTree()
	setString(t, "description", d.Description)
	setString(t, "url", d.URL)
	return t
}

// SecurityScheme defines a security scheme usable by operations. It is
// stored under components.securitySchemes.
//
// See: https://spec.openapis.org/oas/v3.0.2#security-scheme-object
type SecurityScheme struct {
	RefName          string
	Type             string
	Description      string
	Name             string
	In               string
	Scheme           string
	BearerFormat     string
	OpenIDConnectURL string
}

// BearerAuth returns an HTTP bearer security scheme.
func BearerAuth(refName, format string) *SecurityScheme {
	return &SecurityScheme{RefName: refName, Type: "http", Scheme: "bearer", BearerFormat: format}
}

// APIKeyAuth returns an API key security scheme read from in ("header",
// "query" or "cookie") under name.
func APIKeyAuth(refName, in, name string) *SecurityScheme {
	return &SecurityScheme{RefName: refName, Type: "apiKey", In: in, Name: name}
}

// ComponentName implements ComponentObject.
func (s *SecurityScheme) ComponentName() string { return "securitySchemes" }

// ReferenceName implements ComponentObject.
func (s *SecurityScheme) ReferenceName() string { return s.RefName }

// ToTree implements Node.
func (s *SecurityScheme) ToTree() *Tree {
	t := NewTree()
	setString(t, "type", s.Type)
	setString(t, "description", s.Description)
	setString(t, "name", s.Name)
	setString(t, "in", s.In)
	setString(t, "scheme", s.Scheme)
	setString(t, "bearerFormat", s.BearerFormat)
	setString(t, "openIdConnectUrl", s.OpenIDConnectURL)
	return t
}
