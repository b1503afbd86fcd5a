package router

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/turbo-dev/turbo/di"
)

// Context is bound to a single HTTP request and must not be retained or
// accessed from another goroutine past the handler's return (§4.F).
//
// Parameter storage uses a hybrid strategy (§3): the first 8 captured path
// parameters live in fixed arrays; routes with more overflow into Params.
type Context struct {
	Response http.ResponseWriter

	req *http.Request

	paramCount  int
	paramKeys   [8]string
	paramValues [8]string
	Params      map[string]string

	routePattern string
	status       int

	query    url.Values
	queryOK  bool
	body     []byte
	bodyErr  error
	bodyRead bool

	requestLocals map[di.Token]any
	container     *di.Container

	requestID string
	aborted   bool
}

// newContext builds a fresh per-request Context. requestLocals is freshly
// allocated per request so PerRequest-scoped dependencies never leak across
// requests (§4.C testable property).
func newContext(w http.ResponseWriter, r *http.Request, container *di.Container) *Context {
	return &Context{
		req:           r,
		Response:      w,
		status:        http.StatusOK,
		requestLocals: make(map[di.Token]any),
		container:     container,
	}
}

// setParam records a captured path parameter, spilling into Params once the
// fixed arrays are exhausted.
func (c *Context) setParam(key, value string) {
	if c.paramCount < len(c.paramKeys) {
		c.paramKeys[c.paramCount] = key
		c.paramValues[c.paramCount] = value
		c.paramCount++
		return
	}
	if c.Params == nil {
		c.Params = make(map[string]string, 2)
	}
	c.Params[key] = value
}

// PathParam returns a captured path parameter by name.
func (c *Context) PathParam(name string) (string, bool) {
	for i := range c.paramCount {
		if c.paramKeys[i] == name {
			return c.paramValues[i], true
		}
	}
	if c.Params != nil {
		v, ok := c.Params[name]
		return v, ok
	}
	return "", false
}

// Param is PathParam without the found flag, for callers that treat a
// missing parameter as an empty string.
func (c *Context) Param(name string) string {
	v, _ := c.PathParam(name)
	return v
}

// QueryParam returns a query-string value, parsing and memoizing the query
// on first access.
func (c *Context) QueryParam(name string) (string, bool) {
	if !c.queryOK {
		c.query = c.req.URL.Query()
		c.queryOK = true
	}
	if !c.query.Has(name) {
		return "", false
	}
	return c.query.Get(name), true
}

// HeaderParam returns a request header value.
func (c *Context) HeaderParam(name string) (string, bool) {
	v := c.req.Header.Get(name)
	if v == "" {
		return "", false
	}
	return v, true
}

// ParseBody reads and memoizes the raw request body. Subsequent calls
// within the same request return the cached bytes without touching the
// network connection again — this is what makes body-parsing the single
// suspension point the Handler Compiler keys its async classification on.
func (c *Context) ParseBody() ([]byte, error) {
	if c.bodyRead {
		return c.body, c.bodyErr
	}
	c.bodyRead = true
	if c.req.Body == nil {
		return nil, nil
	}
	defer c.req.Body.Close()
	c.body, c.bodyErr = io.ReadAll(c.req.Body)
	return c.body, c.bodyErr
}

// Request returns the underlying *http.Request.
func (c *Context) Request() *http.Request { return c.req }

// Self returns the Context itself, bound to KindContext handler parameters.
func (c *Context) Self() any { return c }

// SetStatus sets the response status code to be written when the executor
// flushes the handler's result. A Response returned by the handler keeps
// its own status.
func (c *Context) SetStatus(code int) { c.status = code }

// StatusCode returns the status code currently staged for the response.
func (c *Context) StatusCode() int { return c.status }

// RoutePattern returns the matched route's registration pattern (e.g.
// "/users/:id"), or "" if no route matched.
func (c *Context) RoutePattern() string { return c.routePattern }

// Abort marks the middleware chain as short-circuited (§4.E). The Request
// Executor checks this after every link and stops walking the chain.
func (c *Context) Abort() { c.aborted = true }

// IsAborted reports whether Abort has been called.
func (c *Context) IsAborted() bool { return c.aborted }

// Resolve resolves a DI token for this request, threading request-scoped
// caching through the container (§4.C).
func (c *Context) Resolve(token di.Token) (any, error) {
	return c.container.GetForRequest(token, c.requestLocals)
}

// Context returns the request's context.Context, for handlers and
// middleware that need cancellation/deadline propagation.
func (c *Context) Context() context.Context { return c.req.Context() }

// RequestID returns the correlation ID assigned by RequestIDMiddleware, or
// "" if that middleware was never installed ahead of the current route.
func (c *Context) RequestID() string { return c.requestID }
