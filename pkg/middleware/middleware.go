// Package middleware provides composable HTTP middleware and an ordered stack to apply it.
package middleware

import "net/http"

// Func wraps an http.Handler.
type Func = func(http.Handler) http.Handler

// System manages an ordered stack of HTTP middleware.
type System interface {
	Use(mw ...Func)
	Apply(handler http.Handler) http.Handler
}

type stack struct {
	fns []Func
}

// New creates a System seeded with the given middleware.
func New(mw ...Func) System {
	return &stack{fns: append([]Func(nil), mw...)}
}

func (s *stack) Use(mw ...Func) {
	s.fns = append(s.fns, mw...)
}

// Apply wraps handler so the first registered middleware runs outermost.
func (s *stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.fns) - 1; i >= 0; i-- {
		handler = s.fns[i](handler)
	}
	return handler
}
