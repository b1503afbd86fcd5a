package router

import (
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	turboerrors "github.com/turbo-dev/turbo/errors"
	"github.com/turbo-dev/turbo/router/route"
)

// registration is what the radix tree stores at a matched node: the
// assembled middleware+handler chain for one method, plus enough metadata
// for the executor and for observability.
type registration struct {
	chain       []*compiledLink
	constraints []route.Constraint
	pattern     string
}

// normalise puts a path into the single canonical form both insert and
// find operate on (§4.A): a leading slash, no consecutive slashes, and no
// trailing slash except for the root itself. It is idempotent —
// normalise(normalise(s)) == normalise(s) — so it is safe to apply to
// already-normalised patterns.
func normalise(path string) string {
	if path == "" {
		return "/"
	}
	if path[0] != '/' {
		path = "/" + path
	}

	var b strings.Builder
	b.Grow(len(path))
	prevSlash := false
	for _, r := range path {
		if r == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteRune(r)
	}

	result := b.String()
	if len(result) > 1 && strings.HasSuffix(result, "/") {
		result = result[:len(result)-1]
	}
	return result
}

// edge is a per-segment child, linearly scanned rather than map-hashed —
// route trees are shallow and small enough that a scan beats a hash on the
// request hot path.
type edge struct {
	label string
	node  *node
}

// param is a node's single dynamic child, one per radix-tree property: a
// node cannot have two different parameter names as children.
type param struct {
	key  string
	node *node
}

// wildcard captures everything remaining in the path from this point on.
type wildcard struct {
	node      *node
	paramName string
}

// node is one point in the route tree. byMethod holds one registration per
// HTTP method registered at this exact path (§3: HEAD is independent of
// GET).
type node struct {
	byMethod    map[string]*registration
	edges       []edge
	staticPaths map[string]*node
	param       *param
	wildcard    *wildcard
	path        string
}

func (n *node) findChild(segment string) *node {
	for i := range n.edges {
		if n.edges[i].label == segment {
			return n.edges[i].node
		}
	}
	return nil
}

func (n *node) findOrCreateChild(segment string) *node {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := &node{}
	n.edges = append(n.edges, edge{label: segment, node: child})
	return child
}

// insert registers reg under method at path, building out the tree as
// needed. It rejects a wildcard anywhere but the final segment
// (ErrWildcardNotLast), a second distinct parameter name reachable at the
// same tree position (ErrConflictingParams), and a second registration of
// the same method+path (ErrAmbiguousRoute).
func (n *node) insert(method, path string, reg *registration) error {
	if strings.Contains(path, "*") && !strings.HasSuffix(path, "/*") {
		return fmt.Errorf("%w: %s", turboerrors.ErrWildcardNotLast, path)
	}

	if path == "" || path == "/" {
		return n.attach(method, reg, "/")
	}

	if prefix, ok := strings.CutSuffix(path, "/*"); ok {
		paramName := "wildcard"
		target := n
		if prefix != "" {
			for _, segment := range strings.Split(strings.Trim(prefix, "/"), "/") {
				if segment == "" {
					continue
				}
				target = target.findOrCreateChild(segment)
			}
		}
		if target.wildcard == nil {
			target.wildcard = &wildcard{node: &node{}, paramName: paramName}
		}
		return target.wildcard.node.attach(method, reg, path)
	}

	if !strings.Contains(path, ":") {
		if n.staticPaths == nil {
			n.staticPaths = make(map[string]*node, 8)
		}
		child, ok := n.staticPaths[path]
		if !ok {
			child = &node{}
			n.staticPaths[path] = child
		}
		return child.attach(method, reg, path)
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	current := n
	for i, segment := range segments {
		if segment == "" {
			continue
		}
		if strings.HasPrefix(segment, ":") {
			name := segment[1:]
			if current.param == nil {
				current.param = &param{key: name, node: &node{}}
			} else if current.param.key != name {
				return fmt.Errorf("%w: %q and %q at the same position in %s", turboerrors.ErrConflictingParams, current.param.key, name, path)
			}
			current = current.param.node
		} else {
			current = current.findOrCreateChild(segment)
		}
		if i == len(segments)-1 {
			if err := current.attach(method, reg, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (n *node) attach(method string, reg *registration, path string) error {
	if n.byMethod == nil {
		n.byMethod = make(map[string]*registration, 2)
	}
	if _, exists := n.byMethod[method]; exists {
		return fmt.Errorf("%w: %s %s", turboerrors.ErrAmbiguousRoute, method, path)
	}
	n.byMethod[method] = reg
	n.path = path
	return nil
}

// matchResult is what find reports. A matched path with no handler for the
// request method is reported the same way as no match at all: both are a
// nil registration, and the executor treats every nil registration as a
// plain routing miss (§4.A, §9) rather than distinguishing a 405.
type matchResult struct {
	registration *registration
}

func (n *node) find(method, path string, ctx *Context) matchResult {
	if path == "" || path == "/" {
		return n.matchNode(method)
	}

	if n.staticPaths != nil {
		if child, ok := n.staticPaths[path]; ok && child.byMethod != nil {
			if result := child.matchNode(method); result.registration != nil {
				return result
			}
		}
	}

	current := n
	start := 0
	if path[0] == '/' {
		start = 1
	}
	pathLen := len(path)

	for start < pathLen {
		end := start
		for end < pathLen && path[end] != '/' {
			end++
		}
		segment := path[start:end]
		isLast := end >= pathLen

		if next := current.findChild(segment); next != nil {
			current = next
		} else if current.param != nil {
			ctx.setParam(current.param.key, segment)
			current = current.param.node
		} else if current.wildcard != nil {
			ctx.setParam(current.wildcard.paramName, path[start:])
			return current.wildcard.node.matchNode(method)
		} else {
			return matchResult{}
		}

		if isLast {
			result := current.matchNode(method)
			if result.registration != nil && !validateConstraints(result.registration.constraints, ctx) {
				return matchResult{}
			}
			return result
		}
		start = end + 1
	}

	return matchResult{}
}

func (n *node) matchNode(method string) matchResult {
	if n.byMethod == nil {
		return matchResult{}
	}
	if reg, ok := n.byMethod[method]; ok {
		return matchResult{registration: reg}
	}
	return matchResult{}
}

func validateConstraints(constraints []route.Constraint, ctx *Context) bool {
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		value, found := ctx.PathParam(c.Param)
		if !found || !c.Pattern.MatchString(value) {
			return false
		}
	}
	return true
}

// compiledRoute is a cached static-path registration, keyed by an FNV-1a
// hash of "METHOD path" to dodge a map access keyed on a concatenated
// string per request.
type compiledRoute struct {
	key          string
	registration *registration
}

// staticRouteFilter rejects a static-route miss before the route map is
// ever touched. It uses Kirsch-Mitzenmacher double hashing: two
// independent FNV hashes (1a and the plain variant) are combined as
// h1 + i*h2 to simulate staticFilterHashCount probe positions without
// a per-probe hash computation or a configurable hash-function count —
// this index only ever needs the one fixed probe count, so it bakes that
// in rather than exposing a general-purpose k.
type staticRouteFilter struct {
	bits []uint64
	size uint64
}

const staticFilterHashCount = 3

func newStaticRouteFilter(size uint64) *staticRouteFilter {
	return &staticRouteFilter{bits: make([]uint64, (size+63)/64), size: size}
}

func (f *staticRouteFilter) probes(data []byte) (h1, h2 uint64) {
	a := fnv.New64a()
	a.Write(data)
	b := fnv.New64()
	b.Write(data)
	return a.Sum64(), b.Sum64()
}

func (f *staticRouteFilter) add(data []byte) {
	h1, h2 := f.probes(data)
	for i := uint64(0); i < staticFilterHashCount; i++ {
		pos := (h1 + i*h2) % f.size
		f.bits[pos/64] |= 1 << (pos % 64)
	}
}

// test reports whether data might be a member. false is a definite
// answer; true may be a false positive.
func (f *staticRouteFilter) test(data []byte) bool {
	h1, h2 := f.probes(data)
	for i := uint64(0); i < staticFilterHashCount; i++ {
		pos := (h1 + i*h2) % f.size
		if f.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// staticIndex accelerates lookups for parameter-free routes: a bloom
// filter rejects misses before the real map is ever touched.
type staticIndex struct {
	mu     sync.RWMutex
	routes map[uint64]*compiledRoute
	bloom  *staticRouteFilter
}

func newStaticIndex(expectedRoutes int) *staticIndex {
	size := uint64(expectedRoutes * 16)
	if size < 256 {
		size = 256
	}
	return &staticIndex{
		routes: make(map[uint64]*compiledRoute, expectedRoutes),
		bloom:  newStaticRouteFilter(size),
	}
}

func staticKey(method, path string) string { return method + " " + path }

func (s *staticIndex) add(method, path string, reg *registration) {
	key := staticKey(method, path)
	h := fnv.New64a()
	h.Write([]byte(key))
	hash := h.Sum64()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[hash] = &compiledRoute{key: key, registration: reg}
	s.bloom.add([]byte(key))
}

func (s *staticIndex) lookup(method, path string) *registration {
	key := staticKey(method, path)
	if !s.bloom.test([]byte(key)) {
		return nil
	}
	h := fnv.New64a()
	h.Write([]byte(key))
	hash := h.Sum64()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if cr, ok := s.routes[hash]; ok && cr.key == key {
		return cr.registration
	}
	return nil
}
