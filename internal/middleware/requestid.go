// Package middleware provides HTTP middleware components for the
// feed API server.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDKey is the context key for request ID.
type requestIDKey struct{}

// viewerIDKey is the context key for viewer ID.
type viewerIDKey struct{}

// Identity headers. Authentication happens upstream; the gateway
// forwards the resolved viewer identity in X-Viewer-ID.
const (
	RequestIDHeader = "X-Request-ID"
	ViewerIDHeader  = "X-Viewer-ID"
)

// RequestID is a middleware that injects a request ID into the
// context, reusing an inbound X-Request-ID header when present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID from context. Returns empty
// string if not present.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// ViewerID is a middleware that copies the upstream-resolved viewer
// identity into the context. Absence is not an error: anonymous
// requests are valid for trending.
func ViewerID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewerID := r.Header.Get(ViewerIDHeader)
		if viewerID == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), viewerIDKey{}, viewerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetViewerID returns the viewer ID from context. Returns empty
// string for anonymous requests.
func GetViewerID(ctx context.Context) string {
	if id, ok := ctx.Value(viewerIDKey{}).(string); ok {
		return id
	}
	return ""
}
