// Package di implements the dependency-injection container (§4.C): token
// registration, scoped resolution (singleton / per-request / per-injection),
// and mandatory cycle detection.
//
// Tokens are reflect.Type values — typically an interface type a provider's
// constructor returns — rather than runtime-discovered struct fields, per
// REDESIGN FLAGS: dependency discovery is explicit, not reflective. A
// provider declares the tokens its constructor needs; the container never
// inspects a constructor's signature to infer them.
package di

import (
	"fmt"
	"reflect"
	"sync"

	turboerrors "github.com/turbo-dev/turbo/errors"
)

// Token identifies a registrable dependency.
type Token = reflect.Type

// TokenOf returns the Token for T. Use an interface type parameter when the
// provider should be resolved by an abstract contract rather than a
// concrete struct type.
func TokenOf[T any]() Token {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Scope governs the lifetime and sharing of a provided instance.
type Scope int

const (
	// Singleton instances are constructed once and shared for the
	// container's lifetime.
	Singleton Scope = iota
	// PerRequest instances are constructed once per request and cached in
	// the request-local map supplied to Resolver.
	PerRequest
	// PerInjection instances are constructed fresh at every resolution.
	PerInjection
)

// Resolver is the view of the container a provider's constructor receives.
// It exposes only Resolve so constructors cannot register new providers or
// otherwise mutate container state.
type Resolver interface {
	Resolve(token Token) (any, error)
}

// Constructor builds an instance, resolving any dependencies it needs
// through r. Declared dependencies (the tokens a constructor will pull from
// r) are documented by the provider author; the container does not infer
// them.
type Constructor func(r Resolver) (any, error)

// Provider is a registration record: what a token resolves to, and under
// what scope.
type Provider struct {
	Token       Token
	Scope       Scope
	Constructor Constructor
	// Deps lists the tokens this provider's constructor depends on. It is
	// optional and informational: the container does not read it, does not
	// validate it eagerly, and does not resolve it before construction.
	// Dependencies are resolved, and cycles detected, only through the
	// Resolve calls the constructor makes.
	Deps []Token
}

// Container is the DI container. The zero value is not usable; construct
// with New.
type Container struct {
	mu         sync.RWMutex
	providers  map[Token]Provider
	singletons map[Token]any
	frozen     bool
}

// New builds an empty Container.
func New() *Container {
	return &Container{
		providers:  make(map[Token]Provider),
		singletons: make(map[Token]any),
	}
}

// Register adds a provider. Registration is illegal once the container has
// been frozen (lifecycle entered SERVING); see Freeze.
func (c *Container) Register(p Provider) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return fmt.Errorf("register %s: %w", p.Token, turboerrors.ErrRegisterAfterBoot)
	}
	c.providers[p.Token] = p
	return nil
}

// Freeze forbids further registration. Called when the lifecycle
// orchestrator transitions into SERVING.
func (c *Container) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

// Has reports whether a provider is registered for token.
func (c *Container) Has(token Token) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.providers[token]
	return ok
}

// Get resolves token with no request-local scope available; PerRequest
// providers behave as PerInjection in this mode (a fresh instance each
// call), since there is no request to scope them to.
func (c *Container) Get(token Token) (any, error) {
	return c.resolve(token, nil, make(map[Token]bool))
}

// GetForRequest resolves token using requestLocals as the PerRequest cache.
// requestLocals is created by the caller at request start and discarded at
// request end — see Context in the router package.
func (c *Container) GetForRequest(token Token, requestLocals map[Token]any) (any, error) {
	return c.resolve(token, requestLocals, make(map[Token]bool))
}

func (c *Container) resolve(token Token, requestLocals map[Token]any, resolving map[Token]bool) (any, error) {
	if resolving[token] {
		return nil, fmt.Errorf("%w: %s", turboerrors.ErrCycleDetected, token)
	}

	// Request-local cache first.
	if requestLocals != nil {
		if v, ok := requestLocals[token]; ok {
			return v, nil
		}
	}

	// Singleton cache.
	c.mu.RLock()
	if v, ok := c.singletons[token]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	provider, ok := c.providers[token]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", turboerrors.ErrUnknownToken, token)
	}

	resolving[token] = true
	defer delete(resolving, token)

	scopedResolver := &scopedResolver{c: c, requestLocals: requestLocals, resolving: resolving}
	instance, err := provider.Constructor(scopedResolver)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", token, err)
	}

	switch provider.Scope {
	case Singleton:
		c.mu.Lock()
		if existing, ok := c.singletons[token]; ok {
			// Lost the race with a concurrent resolver; keep the first
			// instance so all callers observe the same reference.
			c.mu.Unlock()
			return existing, nil
		}
		c.singletons[token] = instance
		c.mu.Unlock()
	case PerRequest:
		if requestLocals != nil {
			requestLocals[token] = instance
		}
	case PerInjection:
		// never cached
	}

	return instance, nil
}

// scopedResolver threads the in-flight request-locals map and cycle-
// detection set through nested constructor calls.
type scopedResolver struct {
	c             *Container
	requestLocals map[Token]any
	resolving     map[Token]bool
}

func (s *scopedResolver) Resolve(token Token) (any, error) {
	return s.c.resolve(token, s.requestLocals, s.resolving)
}
