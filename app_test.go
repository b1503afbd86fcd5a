package turbo_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	turbo "github.com/turbo-dev/turbo"
	"github.com/turbo-dev/turbo/router/route"
)

func TestApp_LifecycleReachesServingThenStops(t *testing.T) {
	a := turbo.New(turbo.WithAddr(":0"), turbo.WithBanner(false))
	a.Handle(http.MethodGet, "/ping", func() string { return "pong" })

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := a.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, turbo.Stopped, a.State())
}

func TestApp_OnInitFailureAbortsBoot(t *testing.T) {
	a := turbo.New(turbo.WithAddr(":0"), turbo.WithBanner(false))
	a.OnInit(func(ctx context.Context) error {
		return assert.AnError
	})

	err := a.Listen(context.Background())
	require.Error(t, err)
}

func TestApp_OnInitRunsSequentiallyAndStopsOnFirstError(t *testing.T) {
	a := turbo.New(turbo.WithAddr(":0"), turbo.WithBanner(false))
	var order []int
	a.OnInit(func(ctx context.Context) error {
		order = append(order, 1)
		return nil
	})
	a.OnInit(func(ctx context.Context) error {
		order = append(order, 2)
		return assert.AnError
	})
	a.OnInit(func(ctx context.Context) error {
		order = append(order, 3)
		return nil
	})

	_ = a.Listen(context.Background())
	assert.Equal(t, []int{1, 2}, order)
}

func TestApp_OnShutdownRunsInLIFOOrder(t *testing.T) {
	a := turbo.New(turbo.WithAddr(":0"), turbo.WithBanner(false))
	var order []int
	a.OnShutdown(func(ctx context.Context) { order = append(order, 1) })
	a.OnShutdown(func(ctx context.Context) { order = append(order, 2) })
	a.OnShutdown(func(ctx context.Context) { order = append(order, 3) })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Listen(ctx))

	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestApp_HooksAfterConfiguringPanic(t *testing.T) {
	a := turbo.New(turbo.WithAddr(":0"), turbo.WithBanner(false))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Listen(ctx))

	assert.Panics(t, func() {
		a.OnInit(func(context.Context) error { return nil })
	})
}

func TestApp_OnInitHonorsExplicitPriorityOverRegistrationOrder(t *testing.T) {
	a := turbo.New(turbo.WithAddr(":0"), turbo.WithBanner(false))
	var order []int
	a.OnInit(func(ctx context.Context) error { order = append(order, 1); return nil }, turbo.WithPriority(10))
	a.OnInit(func(ctx context.Context) error { order = append(order, 2); return nil }, turbo.WithPriority(-5))
	a.OnInit(func(ctx context.Context) error { order = append(order, 3); return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Listen(ctx))

	assert.Equal(t, []int{2, 3, 1}, order)
}

func TestApp_OnShutdownDefaultsToLIFOAmongEqualPriority(t *testing.T) {
	a := turbo.New(turbo.WithAddr(":0"), turbo.WithBanner(false))
	var order []int
	a.OnShutdown(func(ctx context.Context) { order = append(order, 1) })
	a.OnShutdown(func(ctx context.Context) { order = append(order, 2) })
	a.OnShutdown(func(ctx context.Context) { order = append(order, 3) })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Listen(ctx))

	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestApp_OnShutdownExplicitPriorityOverridesLIFODefault(t *testing.T) {
	a := turbo.New(turbo.WithAddr(":0"), turbo.WithBanner(false))
	var order []int
	a.OnShutdown(func(ctx context.Context) { order = append(order, 1) }, turbo.WithPriority(-1))
	a.OnShutdown(func(ctx context.Context) { order = append(order, 2) })
	a.OnShutdown(func(ctx context.Context) { order = append(order, 3) })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Listen(ctx))

	assert.Equal(t, []int{1, 3, 2}, order)
}

func TestApp_OnRouteFiresForEachRegisteredDescriptor(t *testing.T) {
	a := turbo.New(turbo.WithAddr(":0"), turbo.WithBanner(false))
	var seen []string
	a.OnRoute(func(d *route.Descriptor) { seen = append(seen, d.Method+" "+d.Path) })

	a.Handle(http.MethodGet, "/a", func() string { return "a" })
	a.Handle(http.MethodGet, "/b", func() string { return "b" })

	assert.Equal(t, []string{"GET /a", "GET /b"}, seen)
}
