package turbo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	turboerrors "github.com/turbo-dev/turbo/errors"
	"github.com/turbo-dev/turbo/router/route"
)

// State is one stage of the application lifecycle state machine (§4.D).
// Transitions are one-way: Configuring -> Initialising -> Ready ->
// Serving -> Draining -> Stopped.
type State int

const (
	Configuring State = iota
	Initialising
	Ready
	Serving
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Configuring:
		return "CONFIGURING"
	case Initialising:
		return "INITIALISING"
	case Ready:
		return "READY"
	case Serving:
		return "SERVING"
	case Draining:
		return "DRAINING"
	case Stopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

var allowedTransitions = map[State]State{
	Configuring:  Initialising,
	Initialising: Ready,
	Ready:        Serving,
	Serving:      Draining,
	Draining:     Stopped,
}

// HookOption configures a single lifecycle hook registration.
type HookOption func(*hookConfig)

type hookConfig struct {
	priority int
}

// WithPriority overrides a hook's run order within its phase: lower
// numeric priority runs earlier. Hooks registered without a priority
// default to 0 and, among themselves, keep the phase's natural order
// (registration order for OnInit/OnBoot/OnStop, LIFO for OnShutdown).
func WithPriority(n int) HookOption {
	return func(c *hookConfig) { c.priority = n }
}

func newHookConfig(opts []HookOption) hookConfig {
	var c hookConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

type initHook struct {
	fn       func(context.Context) error
	priority int
}

type bootHook struct {
	fn       func()
	priority int
}

type shutdownHook struct {
	fn       func(context.Context)
	priority int
}

type stopHook struct {
	fn       func()
	priority int
}

// Hooks stores the lifecycle callbacks registered via App.OnInit,
// App.OnBoot, App.OnShutdown, App.OnStop, and App.OnRoute.
type Hooks struct {
	onInit     []initHook
	onBoot     []bootHook
	onShutdown []shutdownHook
	onStop     []stopHook
	onRoute    []func(*route.Descriptor)
	mu         sync.Mutex
}

// OnInit registers a hook that runs during Initialising, in ascending
// priority order (ties broken by registration order). The first error
// aborts startup.
func (a *App) OnInit(fn func(context.Context) error, opts ...HookOption) {
	a.mustConfiguring("OnInit")
	cfg := newHookConfig(opts)
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onInit = append(a.hooks.onInit, initHook{fn: fn, priority: cfg.priority})
}

// OnBoot registers a hook fired, fire-and-forget with panic recovery,
// after the server starts accepting connections, in ascending priority
// order (ties broken by registration order).
func (a *App) OnBoot(fn func(), opts ...HookOption) {
	a.mustConfiguring("OnBoot")
	cfg := newHookConfig(opts)
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onBoot = append(a.hooks.onBoot, bootHook{fn: fn, priority: cfg.priority})
}

// OnShutdown registers a hook run during Draining, bounded by the
// configured shutdown timeout. Hooks with equal priority run in LIFO
// order; an explicit priority overrides that default ordering.
func (a *App) OnShutdown(fn func(context.Context), opts ...HookOption) {
	a.mustConfiguring("OnShutdown")
	cfg := newHookConfig(opts)
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onShutdown = append(a.hooks.onShutdown, shutdownHook{fn: fn, priority: cfg.priority})
}

// OnStop registers a best-effort hook run after the server has fully
// stopped, in ascending priority order (ties broken by registration
// order); panics are recovered and logged, never propagated.
func (a *App) OnStop(fn func(), opts ...HookOption) {
	a.mustConfiguring("OnStop")
	cfg := newHookConfig(opts)
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onStop = append(a.hooks.onStop, stopHook{fn: fn, priority: cfg.priority})
}

// OnRoute registers a hook fired once per descriptor registered through
// App.Handle, useful for documentation generation or audit logging. Routes
// added on a Group returned by App.Group do not fire it.
func (a *App) OnRoute(fn func(*route.Descriptor)) {
	a.mustConfiguring("OnRoute")
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onRoute = append(a.hooks.onRoute, fn)
}

func (a *App) mustConfiguring(method string) {
	if a.State() != Configuring {
		panic(fmt.Sprintf("turbo: %s called after CONFIGURING (state is %s)", method, a.State()))
	}
}

// State returns the application's current lifecycle state.
func (a *App) State() State {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.state
}

// transition moves the state machine forward, rejecting any jump that
// does not follow the fixed sequence.
func (a *App) transition(to State) error {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	if allowedTransitions[a.state] != to {
		return fmt.Errorf("%w: %s -> %s", turboerrors.ErrIllegalTransition, a.state, to)
	}
	a.state = to
	return nil
}

func (a *App) fireRouteHook(d *route.Descriptor) {
	if a.State() != Configuring {
		return
	}
	a.hooks.mu.Lock()
	hooks := append([]func(*route.Descriptor){}, a.hooks.onRoute...)
	a.hooks.mu.Unlock()
	for _, hook := range hooks {
		hook(d)
	}
}

func (a *App) runInitHooks(ctx context.Context) error {
	a.hooks.mu.Lock()
	hooks := append([]initHook{}, a.hooks.onInit...)
	a.hooks.mu.Unlock()

	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].priority < hooks[j].priority })

	for i, hook := range hooks {
		if err := hook.fn(ctx); err != nil {
			return fmt.Errorf("OnInit hook %d failed: %w", i, err)
		}
	}
	return nil
}

func (a *App) runBootHooks() {
	a.hooks.mu.Lock()
	hooks := append([]bootHook{}, a.hooks.onBoot...)
	a.hooks.mu.Unlock()

	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].priority < hooks[j].priority })

	for _, hook := range hooks {
		go func(hook bootHook) {
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error(context.Background(), "OnBoot hook panic", "panic", r)
				}
			}()
			hook.fn()
		}(hook)
	}
}

func (a *App) runShutdownHooks(ctx context.Context) {
	a.hooks.mu.Lock()
	hooks := append([]shutdownHook{}, a.hooks.onShutdown...)
	a.hooks.mu.Unlock()

	// LIFO is the default tie-break: reverse registration order first,
	// then stable-sort by priority so an explicit priority still wins.
	for i, j := 0, len(hooks)-1; i < j; i, j = i+1, j-1 {
		hooks[i], hooks[j] = hooks[j], hooks[i]
	}
	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].priority < hooks[j].priority })

	for _, hook := range hooks {
		hook.fn(ctx)
	}
}

func (a *App) runStopHooks() {
	a.hooks.mu.Lock()
	hooks := append([]stopHook{}, a.hooks.onStop...)
	a.hooks.mu.Unlock()

	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].priority < hooks[j].priority })

	for _, hook := range hooks {
		func(hook stopHook) {
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error(context.Background(), "OnStop hook panic", "panic", r)
				}
			}()
			hook.fn()
		}(hook)
	}
}
