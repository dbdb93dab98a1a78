// Package middleware provides the HTTP middleware stack: request IDs,
// logging, panic recovery, tracing, and rate limiting.
package middleware

import "net/http"

// Chain applies middleware to a handler, first in the slice outermost.
func Chain(handler http.Handler, stack ...func(http.Handler) http.Handler) http.Handler {
	for i := len(stack) - 1; i >= 0; i-- {
		handler = stack[i](handler)
	}
	return handler
}
