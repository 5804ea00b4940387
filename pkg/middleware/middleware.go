package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// RouteMiddleware wraps a single route's handler function.
type RouteMiddleware func(next http.HandlerFunc) http.HandlerFunc

// SetRouteChain applies route middlewares right-to-left, so the first
// argument listed is the outermost wrapper.
func SetRouteChain(handler http.HandlerFunc, middlewares ...RouteMiddleware) http.HandlerFunc {
	h := handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	return h
}

// SetChain applies handler-level middlewares right-to-left.
func SetChain(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	h := handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}

	return h
}

// HTTPResponseTraceInjection copies the active trace id onto the
// response, so buyers reporting a failed checkout can quote it.
func HTTPResponseTraceInjection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc := trace.SpanContextFromContext(r.Context())
		if sc.HasTraceID() {
			w.Header().Set("X-Trace-Id", sc.TraceID().String())
		}

		next.ServeHTTP(w, r)
	})
}
