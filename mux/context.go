package mux

import (
	"context"
	"errors"
	"net/http"
)

type routeContextKey struct{}

var ctxKey = routeContextKey{}

// routeContext holds the matched route and extracted variables.
type routeContext struct {
	route *Route
	vars  map[string]string
}

// Vars returns the route variables for the current request, if any.
func Vars(r *http.Request) map[string]string {
	if rc, ok := r.Context().Value(ctxKey).(*routeContext); ok {
		return rc.vars
	}
	return nil
}

// VarGet returns the value of a single route variable by name and a boolean
// indicating whether the variable exists.
func VarGet(r *http.Request, name string) (string, bool) {
	if rc, ok := r.Context().Value(ctxKey).(*routeContext); ok && rc.vars != nil {
		val, exists := rc.vars[name]
		return val, exists
	}
	return "", false
}

// CurrentRoute returns the matched route for the current request, if any.
// It only works inside the handler chain of the matched route because
// the route is stored in the request context.
func CurrentRoute(r *http.Request) *Route {
	if rc, ok := r.Context().Value(ctxKey).(*routeContext); ok {
		return rc.route
	}
	return nil
}

// SetURLVars sets the URL variables for the given request, returning the
// modified request. This is intended for testing route handlers.
func SetURLVars(r *http.Request, val map[string]string) *http.Request {
	return setRouteContext(r, CurrentRoute(r), val)
}

// WithRoute stores route in the request context, as the router does on a
// match. This is intended for testing middleware outside a router.
func WithRoute(r *http.Request, route *Route) *http.Request {
	return setRouteContext(r, route, Vars(r))
}

func setRouteContext(r *http.Request, route *Route, vars map[string]string) *http.Request {
	ctx := context.WithValue(r.Context(), ctxKey, &routeContext{route: route, vars: vars})
	return r.WithContext(ctx)
}

// RouteMatch stores information about a matched route.
type RouteMatch struct {
	// Route is the matched route, if any.
	Route *Route

	// Handler is the handler to use for the matched route.
	Handler http.Handler

	// Vars contains the extracted path variables from the matched route.
	Vars map[string]string

	// MatchErr is set to ErrMethodMismatch when the request method
	// does not match but the path does.
	MatchErr error
}

// MiddlewareFunc is a function which receives an http.Handler and returns
// another http.Handler.
type MiddlewareFunc func(http.Handler) http.Handler

// Middleware allows MiddlewareFunc to implement the Middleware interface.
func (mw MiddlewareFunc) Middleware(handler http.Handler) http.Handler {
	return mw(handler)
}

// WalkFunc is the type of the function called for each route visited by Walk.
type WalkFunc func(route *Route, router *Router) error

// ErrMethodMismatch is returned when the method in the request does not match
// the method defined against the route.
var ErrMethodMismatch = errors.New("method is not allowed")

// ErrNotFound is returned when no route match is found.
var ErrNotFound = errors.New("no matching route was found")

// ErrNoPath is returned when a route has no path pattern.
var ErrNoPath = errors.New("mux: route doesn't have a path")

// SkipRoute is used as a return value from WalkFunc to continue with the
// next route.
var SkipRoute = errors.New("skip this route") //nolint:revive,staticcheck // sentinel, not a failure
