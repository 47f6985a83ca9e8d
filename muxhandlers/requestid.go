package muxhandlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/vitalvas/oaspec/mux"
)

// DefaultRequestIDHeader is the header carrying the request id.
const DefaultRequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFromContext returns the request id stored by RequestIDMiddleware,
// or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDConfig configures RequestIDMiddleware.
type RequestIDConfig struct {
	// Header defaults to DefaultRequestIDHeader.
	Header string

	// Generate returns a new id. Defaults to NewRequestID.
	Generate func() string

	// TrustIncoming reuses a non-empty id sent by the client.
	TrustIncoming bool
}

// RequestIDMiddleware tags every request with an id. The id is stored in the
// request context, so rejections logged by the body validation middleware
// can be correlated, and echoed in the response header.
func RequestIDMiddleware(cfg RequestIDConfig) mux.MiddlewareFunc {
	header := cfg.Header
	if header == "" {
		header = DefaultRequestIDHeader
	}

	generate := cfg.Generate
	if generate == nil {
		generate = NewRequestID
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if cfg.TrustIncoming {
				id = r.Header.Get(header)
			}
			if id == "" {
				id = generate()
			}

			w.Header().Set(header, id)
			next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
		})
	}
}

// NewRequestID returns a time-ordered UUID v7 string.
func NewRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
