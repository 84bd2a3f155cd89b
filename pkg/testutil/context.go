package testutil

import (
	"context"
	"net/http"

	"trustdash/pkg/requestcontext"
)

// WithAccount adds the authenticated account to the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithAccount(req *http.Request, account string) *http.Request {
	if account == "" {
		return req
	}
	return req.WithContext(requestcontext.WithAccount(req.Context(), account))
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
