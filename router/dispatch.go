package router

import (
	"fmt"

	"github.com/turbo-dev/turbo/router/compiler"
	"github.com/turbo-dev/turbo/router/route"
)

// HandlerFunc is the concrete signature for middleware and for the
// Dispatch Assembler's own machinery. route.Handler values are
// type-asserted to HandlerFunc when they came from Group/Descriptor.Use;
// a route's own business handler keeps its arbitrary signature and goes
// through the Handler Compiler instead.
type HandlerFunc func(*Context)

// compiledLink is one entry in an assembled chain: either a middleware
// function or the terminal compiled route handler.
type compiledLink struct {
	middleware HandlerFunc
	terminal   *compiler.Compiled
}

func asHandlerFunc(h route.Handler) (HandlerFunc, error) {
	fn, ok := h.(HandlerFunc)
	if !ok {
		return nil, fmt.Errorf("router: middleware value of type %T is not a router.HandlerFunc", h)
	}
	return fn, nil
}

// assemble walks a route.Group tree and, for every descriptor, builds the
// full middleware chain (global ⧺ plugin ⧺ controller ⧺ method, §4.E) and
// compiles its terminal handler. It inserts one registration per
// (method, full path) pair into the route tree; Freeze later copies the
// parameter-free ones into the static index.
func (r *Router) assemble(g *route.Group) error {
	for _, d := range g.Descriptors() {
		chain, err := r.buildChain(d)
		if err != nil {
			return fmt.Errorf("router: assembling %s %s: %w", d.Method, fullPath(g, d.Path), err)
		}
		reg := &registration{chain: chain, constraints: d.Constraints, pattern: normalise(fullPath(g, d.Path))}
		if err := r.register(d.Method, reg.pattern, reg); err != nil {
			return err
		}
	}
	for _, child := range g.Children() {
		if err := r.assemble(child); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) buildChain(d *route.Descriptor) ([]*compiledLink, error) {
	var links []*compiledLink

	for _, mw := range r.globalMiddleware {
		links = append(links, &compiledLink{middleware: mw})
	}
	for _, mw := range r.plugins {
		links = append(links, &compiledLink{middleware: mw})
	}
	for _, mw := range d.Group().EffectiveMiddleware() {
		fn, err := asHandlerFunc(mw)
		if err != nil {
			return nil, err
		}
		links = append(links, &compiledLink{middleware: fn})
	}
	for _, mw := range d.MethodMiddleware {
		fn, err := asHandlerFunc(mw)
		if err != nil {
			return nil, err
		}
		links = append(links, &compiledLink{middleware: fn})
	}

	compiled, err := r.compileTerminal(d)
	if err != nil {
		return nil, err
	}
	links = append(links, &compiledLink{terminal: compiled})
	return links, nil
}

func (r *Router) compileTerminal(d *route.Descriptor) (*compiler.Compiled, error) {
	if staticValue, ok := d.Handler.(staticHandler); ok {
		return compiler.CompileStatic(staticValue.value), nil
	}
	return compiler.Compile(d.Handler, d.Params, r.validator)
}

// staticHandler marks a Descriptor.Handler as a precomputed value rather
// than a callable — registration strategy 1 of the Dispatch Assembler.
type staticHandler struct{ value any }

// HandleStatic registers a route whose response is already known at
// registration time; no function is invoked per request.
func HandleStatic(g *route.Group, method, path string, value any) *route.Descriptor {
	return g.Handle(method, path, staticHandler{value: value})
}

func fullPath(g *route.Group, path string) string {
	full := g.FullPath()
	if path == "" {
		return full
	}
	if full == "" || full == "/" {
		if path[0] != '/' {
			return "/" + path
		}
		return path
	}
	if path[0] == '/' {
		return full + path
	}
	return full + "/" + path
}
