// Package routes declares HTTP routes in nested groups and registers them on a ServeMux.
package routes

import (
	"net/http"

	"github.com/JaimeStill/certifier/pkg/middleware"
	"github.com/JaimeStill/certifier/pkg/openapi"
)

// Group organizes routes under a common prefix. Middleware applies to every
// route in the group and its children, outermost first.
type Group struct {
	Prefix     string
	Middleware []middleware.Func
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux and returns the
// registered patterns in registration order.
func Register(mux *http.ServeMux, groups ...Group) []string {
	var patterns []string
	for _, group := range groups {
		patterns = registerGroup(mux, "", nil, group, patterns)
	}
	return patterns
}

func registerGroup(mux *http.ServeMux, parentPrefix string, parentMW []middleware.Func, group Group, patterns []string) []string {
	prefix := parentPrefix + group.Prefix
	mw := append(append([]middleware.Func(nil), parentMW...), group.Middleware...)
	stack := middleware.New(mw...)

	for _, route := range group.Routes {
		pattern := route.Method + " " + prefix + route.Pattern
		mux.Handle(pattern, stack.Apply(route.Handler))
		patterns = append(patterns, pattern)
	}
	for _, child := range group.Children {
		patterns = registerGroup(mux, prefix, mw, child, patterns)
	}
	return patterns
}

// Describe adds every documented route in groups to spec. Routes without an
// OpenAPI operation are skipped.
func Describe(spec *openapi.Spec, groups ...Group) {
	for _, group := range groups {
		describeGroup(spec, "", group)
	}
}

func describeGroup(spec *openapi.Spec, parentPrefix string, group Group) {
	prefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		if route.OpenAPI == nil {
			continue
		}
		spec.AddOperation(route.Method, prefix+route.Pattern, route.OpenAPI)
	}
	for _, child := range group.Children {
		describeGroup(spec, prefix, child)
	}
}
