package route

import "strings"

// Handler is an opaque handler or middleware value. It is declared as `any`
// here — rather than a concrete function type — purely to avoid an import
// cycle: the concrete signature (func(*router.Context) ...) is defined in
// the router package, which imports route for its builder types. The
// Dispatch Assembler type-asserts back to the concrete signature when it
// walks a Group.
type Handler = any

// Descriptor is a route registered against a Group before assembly. It is
// mutable until the Dispatch Assembler consumes it during Router.Mount; the
// assembler is what produces the immutable runtime route descriptor (§3).
type Descriptor struct {
	Method           string
	Path             string // subpath relative to the owning Group's prefix
	Handler          Handler
	Params           []Param
	Constraints      []Constraint
	MethodMiddleware []Handler

	group *Group
}

// Where attaches a regex constraint to a path parameter. Returns the
// descriptor for chaining.
func (d *Descriptor) Where(param, pattern string) *Descriptor {
	d.Constraints = append(d.Constraints, NewConstraint(param, pattern))
	return d
}

// Use appends method-scoped middleware, run after controller-scoped
// middleware per the total middleware order (§4.E).
func (d *Descriptor) Use(mw ...Handler) *Descriptor {
	d.MethodMiddleware = append(d.MethodMiddleware, mw...)
	return d
}

// Group returns the owning Group.
func (d *Descriptor) Group() *Group { return d.group }

// Group is the Go builder-API stand-in for spec.md's annotation-driven
// "controller": a base path plus a middleware list, with nested child
// groups corresponding to child controllers.
type Group struct {
	prefix     string
	middleware []Handler
	parent     *Group
	children   []*Group
	routes     []*Descriptor
}

// NewGroup creates a root group with the given base path and
// controller-scoped middleware.
func NewGroup(prefix string, middleware ...Handler) *Group {
	return &Group{prefix: prefix, middleware: middleware}
}

// Group creates and returns a child group, nesting its prefix under this
// one.
func (g *Group) Group(prefix string, middleware ...Handler) *Group {
	child := &Group{prefix: prefix, middleware: middleware, parent: g}
	g.children = append(g.children, child)
	return child
}

// Handle registers a route under this group. The path is relative to the
// group's own prefix; FullPath resolves the complete pattern.
func (g *Group) Handle(method, path string, handler Handler, params ...Param) *Descriptor {
	d := &Descriptor{Method: method, Path: path, Handler: handler, Params: params, group: g}
	g.routes = append(g.routes, d)
	return d
}

// FullPath returns this group's path prefix concatenated with all of its
// ancestors', in root-to-leaf order.
func (g *Group) FullPath() string {
	if g.parent == nil {
		return g.prefix
	}
	return joinPath(g.parent.FullPath(), g.prefix)
}

// EffectiveMiddleware returns the controller-scoped middleware chain: every
// ancestor's middleware followed by this group's own, root first.
func (g *Group) EffectiveMiddleware() []Handler {
	if g.parent == nil {
		return append([]Handler(nil), g.middleware...)
	}
	return append(g.parent.EffectiveMiddleware(), g.middleware...)
}

// Descriptors returns the routes registered directly on this group.
func (g *Group) Descriptors() []*Descriptor { return g.routes }

// Children returns this group's child groups.
func (g *Group) Children() []*Group { return g.children }

func joinPath(a, b string) string {
	a = strings.TrimSuffix(a, "/")
	b = strings.TrimPrefix(b, "/")
	if a == "" {
		return "/" + b
	}
	if b == "" {
		return a
	}
	return a + "/" + b
}
