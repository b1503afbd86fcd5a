// Package router implements the HTTP request-dispatch core: a radix/prefix
// route tree (§3, §4.A), an ahead-of-time handler compiler (§4.B), a
// dispatch assembler that composes middleware chains (§4.E), and a request
// executor that normalizes handler returns and exceptions (§4.F, §4.G).
package router

import (
	"context"
	"net/http"
	"sync"

	turboerrors "github.com/turbo-dev/turbo/errors"
	"github.com/turbo-dev/turbo/di"
	"github.com/turbo-dev/turbo/logging"
	"github.com/turbo-dev/turbo/metrics"
	"github.com/turbo-dev/turbo/router/route"
	"github.com/turbo-dev/turbo/validation"
)

// Router owns the route tree, the assembled middleware chains, and the
// shared services every request needs to resolve handlers against.
//
// Thread safety: registration (Use, UsePlugin, Mount) must happen before
// Freeze. After Freeze, ServeHTTP is safe for concurrent use without
// locking — the tree and static index are never mutated again.
type Router struct {
	root   *node
	static *staticIndex

	globalMiddleware []HandlerFunc
	plugins          []HandlerFunc

	validator validation.Adapter
	container *di.Container
	logger    *logging.Logger
	recorder  *metrics.Recorder
	cors      *corsConfig

	frozen bool
	mu     sync.RWMutex
}

// Option configures a Router at construction time.
type Option func(*Router)

// WithValidator installs the validation adapter the Handler Compiler binds
// body and schema-annotated parameters through.
func WithValidator(adapter validation.Adapter) Option {
	return func(r *Router) { r.validator = adapter }
}

// WithContainer installs the DI container used to resolve PerRequest and
// PerInjection dependencies during dispatch.
func WithContainer(c *di.Container) Option {
	return func(r *Router) { r.container = c }
}

// WithLogger installs the structured logger the executor uses to report
// unhandled panics and exceptions.
func WithLogger(l *logging.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithMetrics installs an optional request counter.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(r *Router) { r.recorder = rec }
}

// New creates an empty Router ready for route registration.
func New(opts ...Option) *Router {
	r := &Router{
		root:      &node{},
		validator: validation.NoopAdapter{},
		container: di.New(),
		logger:    logging.Noop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use appends global middleware, run before every other layer.
func (r *Router) Use(mw ...HandlerFunc) {
	r.globalMiddleware = append(r.globalMiddleware, mw...)
}

// UsePlugin appends plugin-scoped middleware, run after global middleware
// and before any controller-scoped middleware.
func (r *Router) UsePlugin(mw ...HandlerFunc) {
	r.plugins = append(r.plugins, mw...)
}

// UseCORS installs the CORS edge (§4.G) ahead of every other global
// middleware.
func (r *Router) UseCORS(opts ...CORSOption) {
	cfg := defaultCORSConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	r.cors = cfg
	r.globalMiddleware = append([]HandlerFunc{corsMiddleware(cfg)}, r.globalMiddleware...)
}

// Mount assembles every descriptor reachable from g, including nested
// child groups, into the route tree. Mount must be called before Freeze.
func (r *Router) Mount(g *route.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return turboerrors.ErrRegisterAfterBoot
	}
	return r.assemble(g)
}

func (r *Router) register(method, path string, reg *registration) error {
	return r.root.insert(method, path, reg)
}

// Freeze finalizes route registration: it compiles every parameter-free
// route into the bloom-filtered static index (§3 Compiled Route Table) so
// ServeHTTP can skip the tree walk entirely for the common case, then
// marks the tree immutable and safe for concurrent reads.
func (r *Router) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.static = newStaticIndex(len(r.root.staticPaths))
	for path, child := range r.root.staticPaths {
		for method, reg := range child.byMethod {
			r.static.add(method, path, reg)
		}
	}
	r.frozen = true
	r.container.Freeze()
}

// ServeHTTP implements http.Handler by finding and executing the matching
// route via the Request Executor (§4.F).
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.execute(w, req)
}

// routerCtxKey is the key under which the executor stores the active
// *Router in a request's context.Context, so handlers can resolve DI
// tokens without a package-level global.
type routerCtxKey struct{}

func withRouter(ctx context.Context, r *Router) context.Context {
	return context.WithValue(ctx, routerCtxKey{}, r)
}

// FromContext retrieves the Router bound to a context.Context by the
// executor, or nil if called outside a request.
func FromContext(ctx context.Context) *Router {
	r, _ := ctx.Value(routerCtxKey{}).(*Router)
	return r
}
