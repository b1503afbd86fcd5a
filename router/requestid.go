package router

import (
	"github.com/google/uuid"
)

// RequestIDOption configures RequestIDMiddleware.
type RequestIDOption func(*requestIDConfig)

type requestIDConfig struct {
	header        string
	allowClientID bool
	generator     func() string
}

func defaultRequestIDConfig() *requestIDConfig {
	return &requestIDConfig{
		header:        "X-Request-ID",
		allowClientID: true,
		generator:     generateUUIDv7,
	}
}

func generateUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// WithRequestIDHeader overrides the header name a request ID is read from
// and echoed on ("X-Request-ID" by default).
func WithRequestIDHeader(name string) RequestIDOption {
	return func(c *requestIDConfig) { c.header = name }
}

// WithRequestIDAllowClientID controls whether an inbound header value is
// trusted as the request ID, or always overwritten with a generated one.
func WithRequestIDAllowClientID(allow bool) RequestIDOption {
	return func(c *requestIDConfig) { c.allowClientID = allow }
}

// WithRequestIDGenerator overrides the ID generator (UUIDv7 by default,
// time-ordered and lexicographically sortable).
func WithRequestIDGenerator(fn func() string) RequestIDOption {
	return func(c *requestIDConfig) { c.generator = fn }
}

// RequestIDMiddleware assigns a correlation ID to every request: it reuses
// an inbound header value when allowed, otherwise generates one, stamps it
// onto both the Context (Context.RequestID) and the response header. It never
// aborts, so the executor goes on to the next link in the chain.
func RequestIDMiddleware(opts ...RequestIDOption) HandlerFunc {
	cfg := defaultRequestIDConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *Context) {
		id := ""
		if cfg.allowClientID {
			id = c.req.Header.Get(cfg.header)
		}
		if id == "" {
			id = cfg.generator()
		}
		c.requestID = id
		c.Response.Header().Set(cfg.header, id)
	}
}
