package di_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbo-dev/turbo/di"
)

type Greeter interface{ Greet() string }

type greeterImpl struct{ name string }

func (g *greeterImpl) Greet() string { return "hello " + g.name }

func TestContainer_SingletonSharedAcrossCallers(t *testing.T) {
	c := di.New()
	token := di.TokenOf[Greeter]()
	require.NoError(t, c.Register(di.Provider{
		Token: token,
		Scope: di.Singleton,
		Constructor: func(r di.Resolver) (any, error) {
			return &greeterImpl{name: "singleton"}, nil
		},
	}))

	a, err := c.Get(token)
	require.NoError(t, err)
	b, err := c.Get(token)
	require.NoError(t, err)

	assert.Same(t, a, b)
}

func TestContainer_PerInjectionAlwaysFresh(t *testing.T) {
	c := di.New()
	token := di.TokenOf[Greeter]()
	require.NoError(t, c.Register(di.Provider{
		Token: token,
		Scope: di.PerInjection,
		Constructor: func(r di.Resolver) (any, error) {
			return &greeterImpl{name: "fresh"}, nil
		},
	}))

	a, err := c.Get(token)
	require.NoError(t, err)
	b, err := c.Get(token)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

func TestContainer_PerRequestDistinctAcrossConcurrentRequests(t *testing.T) {
	c := di.New()
	token := di.TokenOf[Greeter]()
	require.NoError(t, c.Register(di.Provider{
		Token: token,
		Scope: di.PerRequest,
		Constructor: func(r di.Resolver) (any, error) {
			return &greeterImpl{name: "request-scoped"}, nil
		},
	}))

	var wg sync.WaitGroup
	results := make([]any, 2)
	for i := range 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			locals := make(map[di.Token]any)
			inst, err := c.GetForRequest(token, locals)
			require.NoError(t, err)
			results[i] = inst
		}(i)
	}
	wg.Wait()

	assert.NotSame(t, results[0], results[1])
}

func TestContainer_PerRequestCachedWithinSameRequest(t *testing.T) {
	c := di.New()
	token := di.TokenOf[Greeter]()
	calls := 0
	require.NoError(t, c.Register(di.Provider{
		Token: token,
		Scope: di.PerRequest,
		Constructor: func(r di.Resolver) (any, error) {
			calls++
			return &greeterImpl{name: "once"}, nil
		},
	}))

	locals := make(map[di.Token]any)
	a, err := c.GetForRequest(token, locals)
	require.NoError(t, err)
	b, err := c.GetForRequest(token, locals)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
}

type aService struct{ b *bService }
type bService struct{ a *aService }

func TestContainer_CycleDetection(t *testing.T) {
	c := di.New()
	tokenA := di.TokenOf[*aService]()
	tokenB := di.TokenOf[*bService]()

	require.NoError(t, c.Register(di.Provider{
		Token: tokenA,
		Scope: di.Singleton,
		Constructor: func(r di.Resolver) (any, error) {
			b, err := r.Resolve(tokenB)
			if err != nil {
				return nil, err
			}
			return &aService{b: b.(*bService)}, nil
		},
	}))
	require.NoError(t, c.Register(di.Provider{
		Token: tokenB,
		Scope: di.Singleton,
		Constructor: func(r di.Resolver) (any, error) {
			a, err := r.Resolve(tokenA)
			if err != nil {
				return nil, err
			}
			return &bService{a: a.(*aService)}, nil
		},
	}))

	_, err := c.Get(tokenA)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestContainer_UnknownTokenFails(t *testing.T) {
	c := di.New()
	_, err := c.Get(di.TokenOf[Greeter]())
	require.Error(t, err)
}

func TestContainer_RegisterAfterFreezeFails(t *testing.T) {
	c := di.New()
	c.Freeze()
	err := c.Register(di.Provider{Token: di.TokenOf[Greeter](), Scope: di.Singleton, Constructor: func(r di.Resolver) (any, error) {
		return &greeterImpl{}, nil
	}})
	require.Error(t, err)
}
