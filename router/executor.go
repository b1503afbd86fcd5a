package router

import (
	"encoding/json"
	"errors"
	"net/http"

	turboerrors "github.com/turbo-dev/turbo/errors"
)

// execute is the Request Executor (§4.F): it finds the matching route,
// runs the assembled middleware chain with short-circuit semantics,
// invokes the compiled terminal handler, recovers panics, normalizes the
// result through the §4.G exception taxonomy, and writes the response.
func (r *Router) execute(w http.ResponseWriter, req *http.Request) {
	req = req.WithContext(withRouter(req.Context(), r))
	ctx := newContext(w, req, r.container)

	match := r.lookup(req.Method, normalise(req.URL.Path), ctx)
	if match.registration == nil {
		// A CORS preflight needs no OPTIONS route of its own.
		if r.cors != nil && req.Method == http.MethodOptions {
			corsMiddleware(r.cors)(ctx)
			if ctx.IsAborted() {
				r.flush(ctx, Response{Status: ctx.StatusCode()})
				return
			}
		}
		r.writeNotFound(ctx)
		return
	}
	ctx.routePattern = match.registration.pattern

	response := r.runChain(ctx, match.registration.chain)
	r.flush(ctx, response)

	if r.recorder != nil {
		r.recorder.ObserveRequest(req.Method, ctx.routePattern)
		if response.Status >= http.StatusInternalServerError {
			r.recorder.ObserveError(req.Method, ctx.routePattern, response.Status)
		}
	}
}

func (r *Router) lookup(method, path string, ctx *Context) matchResult {
	if r.static != nil {
		if reg := r.static.lookup(method, path); reg != nil {
			return matchResult{registration: reg}
		}
	}
	return r.root.find(method, path, ctx)
}

// runChain walks the assembled chain, stopping as soon as a middleware
// calls ctx.Abort() or the terminal handler has run. Panics anywhere in
// the chain are recovered and treated as unknown exceptions (§4.G).
func (r *Router) runChain(ctx *Context, chain []*compiledLink) (response Response) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error(ctx.Context(), "panic recovered during dispatch", "route", ctx.routePattern, "panic", rec)
			response = unknownExceptionResponse()
		}
	}()

	for _, link := range chain {
		if ctx.IsAborted() {
			break
		}
		if link.middleware != nil {
			link.middleware(ctx)
			continue
		}

		value, err := link.terminal.Invoke(ctx)
		if err != nil {
			return normalizeError(err)
		}
		resp := normalizeResult(value)
		// A status staged via SetStatus wins unless the handler built its
		// own Response.
		if _, own := value.(Response); !own && ctx.StatusCode() != http.StatusOK {
			resp.Status = ctx.StatusCode()
		}
		return resp
	}

	return Response{Status: ctx.StatusCode()}
}

// normalizeError maps the §7 exception taxonomy onto an HTTP response:
// HTTPException carries its own status and body, ValidationException
// always maps to 400, and anything else is an unknown exception mapped to
// a fixed 500 body.
func normalizeError(err error) Response {
	var httpErr *turboerrors.HTTPException
	if ok := asHTTPException(err, &httpErr); ok {
		return JSON(httpErr.Status, httpErr.Body)
	}

	var validationErr *turboerrors.ValidationException
	if ok := asValidationException(err, &validationErr); ok {
		return JSON(validationErr.StatusCode(), map[string]any{
			"error":  "validation_failed",
			"fields": validationErr.Fields,
		})
	}

	return unknownExceptionResponse()
}

func unknownExceptionResponse() Response {
	return JSON(http.StatusInternalServerError, map[string]string{"error": "internal_server_error"})
}

func asHTTPException(err error, target **turboerrors.HTTPException) bool {
	return errors.As(err, target)
}

func asValidationException(err error, target **turboerrors.ValidationException) bool {
	return errors.As(err, target)
}

func (r *Router) writeNotFound(ctx *Context) {
	r.flush(ctx, JSON(http.StatusNotFound, map[string]string{"error": "not_found"}))
}

func (r *Router) flush(ctx *Context, resp Response) {
	header := ctx.Response.Header()
	for k, v := range resp.Headers {
		header.Set(k, v)
	}

	status := resp.Status
	if status == 0 {
		status = ctx.StatusCode()
	}

	if resp.Body == nil {
		ctx.Response.WriteHeader(status)
		return
	}

	if resp.raw {
		switch body := resp.Body.(type) {
		case string:
			header.Set("Content-Type", "text/plain; charset=utf-8")
			ctx.Response.WriteHeader(status)
			_, _ = ctx.Response.Write([]byte(body))
		case []byte:
			if header.Get("Content-Type") == "" {
				header.Set("Content-Type", "application/octet-stream")
			}
			ctx.Response.WriteHeader(status)
			_, _ = ctx.Response.Write(body)
		}
		return
	}

	header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.WriteHeader(status)
	_ = json.NewEncoder(ctx.Response).Encode(resp.Body)
}
