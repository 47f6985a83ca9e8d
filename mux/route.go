package mux

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Route stores information to match a request and describe the endpoint.
type Route struct {
	handler     http.Handler
	pattern     *Pattern
	methods     []string
	name        string
	tags        []string
	summary     string
	description string
	err         error
	namedRoutes map[string]*Route
}

// Match matches this route against the request. A path match with a
// method mismatch sets match.MatchErr to ErrMethodMismatch.
func (r *Route) Match(req *http.Request, match *RouteMatch) bool {
	if r.err != nil || r.pattern == nil {
		return false
	}

	vars, ok := r.pattern.Match(req.URL.Path)
	if !ok {
		return false
	}

	if len(r.methods) > 0 && !slices.Contains(r.methods, req.Method) {
		match.MatchErr = ErrMethodMismatch
		return false
	}

	match.Route = r
	match.Handler = r.handler
	match.Vars = vars
	match.MatchErr = nil

	return true
}

// Path sets the path pattern of the route. See Pattern for the syntax.
func (r *Route) Path(raw string) *Route {
	if r.err != nil {
		return r
	}

	p, err := ParsePattern(raw)
	if err != nil {
		r.err = err
		return r
	}

	r.pattern = p

	return r
}

// Handler sets a handler for the route.
func (r *Route) Handler(handler http.Handler) *Route {
	if r.err == nil {
		r.handler = handler
	}
	return r
}

// HandlerFunc sets a handler function for the route.
func (r *Route) HandlerFunc(f func(http.ResponseWriter, *http.Request)) *Route {
	return r.Handler(http.HandlerFunc(f))
}

// Methods sets the HTTP methods the route answers to. Calling Methods
// again replaces the previous set.
func (r *Route) Methods(methods ...string) *Route {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(m)
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	r.methods = out
	return r
}

// Name sets the name for the route. The name doubles as the operation
// identifier in generated documents.
func (r *Route) Name(name string) *Route {
	if r.name != "" {
		r.err = fmt.Errorf("mux: route already has name %q, can't set %q", r.name, name)
		return r
	}
	if r.err == nil {
		r.name = name
		if r.namedRoutes != nil {
			r.namedRoutes[name] = r
		}
	}
	return r
}

// Tags appends tags describing the route.
func (r *Route) Tags(tags ...string) *Route {
	r.tags = append(r.tags, tags...)
	return r
}

// Summary sets a short summary of what the route does.
func (r *Route) Summary(s string) *Route {
	r.summary = s
	return r
}

// Description sets a verbose description of the route.
func (r *Route) Description(d string) *Route {
	r.description = d
	return r
}

// GetHandler returns the handler for the route, if any.
func (r *Route) GetHandler() http.Handler {
	return r.handler
}

// GetName returns the name for the route, if any.
func (r *Route) GetName() string {
	return r.name
}

// GetMethods returns the methods the route answers to. A nil result
// means the route matches any method.
func (r *Route) GetMethods() []string {
	return slices.Clone(r.methods)
}

// GetPath returns the raw path pattern of the route.
func (r *Route) GetPath() string {
	if r.pattern == nil {
		return ""
	}
	return r.pattern.Raw()
}

// GetPathTemplate returns the normalized path template of the route.
func (r *Route) GetPathTemplate() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.pattern == nil {
		return "", ErrNoPath
	}
	return r.pattern.Template(), nil
}

// GetPattern returns the parsed path pattern, nil when unset.
func (r *Route) GetPattern() *Pattern {
	return r.pattern
}

// GetTags returns the route tags.
func (r *Route) GetTags() []string {
	return slices.Clone(r.tags)
}

// GetSummary returns the route summary.
func (r *Route) GetSummary() string {
	return r.summary
}

// GetDescription returns the route description.
func (r *Route) GetDescription() string {
	return r.description
}

// GetError returns an error resulted from building the route, if any.
func (r *Route) GetError() error {
	return r.err
}
