package mux

import (
	"net/http"
	"strings"
	"sync"
)

// Router registers routes to be matched and dispatches a handler.
//
// It implements the http.Handler interface, so it can be registered to serve
// requests:
//
//	r := mux.NewRouter()
//	r.HandleFunc("/pets/{id<\d+>}", handler).Methods(http.MethodGet)
//	http.ListenAndServe(":8080", r)
type Router struct {
	// NotFoundHandler is called when no route matches.
	// If nil, http.NotFoundHandler() is used.
	NotFoundHandler http.Handler

	// MethodNotAllowedHandler is called when a route matches the path
	// but not the method. If nil, a default 405 handler is used.
	// The Allow header is always set before this handler is invoked.
	MethodNotAllowedHandler http.Handler

	routes      []*Route
	namedRoutes map[string]*Route
	middlewares []MiddlewareFunc

	// handlerCache caches the middleware-wrapped handler per route.
	handlerCache sync.Map // map[*Route]http.Handler

	skipClean bool
}

// NewRouter returns a new router instance.
func NewRouter() *Router {
	return &Router{
		namedRoutes: make(map[string]*Route),
	}
}

// ServeHTTP dispatches the handler registered in the matched route.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !r.skipClean {
		if cleaned := cleanPath(req.URL.Path); cleaned != req.URL.Path {
			u := *req.URL
			u.Path = cleaned
			u.RawPath = ""
			req = req.Clone(req.Context())
			req.URL = &u
		}
	}

	var match RouteMatch
	var handler http.Handler

	switch {
	case r.Match(req, &match):
		handler = match.Handler
		if handler == nil {
			handler = http.NotFoundHandler()
		}
		req = setRouteContext(req, match.Route, match.Vars)
	case match.MatchErr == ErrMethodMismatch:
		w.Header().Set("Allow", strings.Join(allowedMethods(r, req), ", "))
		handler = r.MethodNotAllowedHandler
		if handler == nil {
			handler = methodNotAllowedHandler()
		}
	default:
		handler = r.NotFoundHandler
		if handler == nil {
			handler = http.NotFoundHandler()
		}
	}

	handler.ServeHTTP(w, req)
}

// Match attempts to match the given request against the router's routes.
// A path match with no method match yields ErrMethodMismatch, otherwise
// ErrNotFound.
func (r *Router) Match(req *http.Request, match *RouteMatch) bool {
	var methodMismatch bool

	for _, route := range r.routes {
		if route.Match(req, match) {
			if match.Handler != nil && len(r.middlewares) > 0 {
				if cached, ok := r.handlerCache.Load(match.Route); ok {
					match.Handler = cached.(http.Handler)
				} else {
					wrapped := r.applyMiddleware(match.Handler)
					r.handlerCache.Store(match.Route, wrapped)
					match.Handler = wrapped
				}
			}
			return true
		}
		if match.MatchErr == ErrMethodMismatch {
			methodMismatch = true
		}
	}

	if methodMismatch {
		match.MatchErr = ErrMethodMismatch
		return false
	}

	match.MatchErr = ErrNotFound
	return false
}

// SkipClean defines the path cleaning behavior.
// When true, the path will not be cleaned (path.Clean will not be called).
func (r *Router) SkipClean(value bool) *Router {
	r.skipClean = value
	return r
}

// NewRoute creates an empty route for configuration.
func (r *Router) NewRoute() *Route {
	route := &Route{
		namedRoutes: r.namedRoutes,
	}
	r.routes = append(r.routes, route)
	return route
}

// Handle registers a new route with a path pattern and handler.
func (r *Router) Handle(path string, handler http.Handler) *Route {
	return r.NewRoute().Path(path).Handler(handler)
}

// HandleFunc registers a new route with a path pattern and handler function.
func (r *Router) HandleFunc(path string, f func(http.ResponseWriter, *http.Request)) *Route {
	return r.NewRoute().Path(path).HandlerFunc(f)
}

// Path registers a new route with a path pattern.
func (r *Router) Path(path string) *Route {
	return r.NewRoute().Path(path)
}

// Methods registers a new route with a matcher for HTTP methods.
func (r *Router) Methods(methods ...string) *Route {
	return r.NewRoute().Methods(methods...)
}

// Name registers a new route with the given name.
func (r *Router) Name(name string) *Route {
	return r.NewRoute().Name(name)
}

// Get returns a route registered with the given name.
func (r *Router) Get(name string) *Route {
	return r.namedRoutes[name]
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []*Route {
	out := make([]*Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// Walk calls walkFn for each route in registration order. Returning
// SkipRoute from walkFn continues with the next route; any other error
// stops the walk.
func (r *Router) Walk(walkFn WalkFunc) error {
	for _, route := range r.routes {
		err := walkFn(route, r)
		if err == SkipRoute {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// applyMiddleware wraps the handler with all registered middleware.
func (r *Router) applyMiddleware(handler http.Handler) http.Handler {
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i].Middleware(handler)
	}
	return handler
}

// Use appends a MiddlewareFunc to the chain. Middleware is applied to
// matched handlers only.
func (r *Router) Use(mwf ...MiddlewareFunc) {
	r.middlewares = append(r.middlewares, mwf...)
}
