package turbo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/turbo-dev/turbo/cache"
	"github.com/turbo-dev/turbo/di"
	"github.com/turbo-dev/turbo/logging"
	"github.com/turbo-dev/turbo/metrics"
	"github.com/turbo-dev/turbo/router"
	"github.com/turbo-dev/turbo/router/route"
)

// App assembles the request-dispatch core into a runnable service: a
// router, a DI container, an optional cache and metrics recorder, and the
// lifecycle state machine that drives them from Configuring through
// Stopped (§4.D).
type App struct {
	config Config
	root   *route.Group
	router *router.Router

	container *di.Container
	logger    *logging.Logger
	recorder  *metrics.Recorder
	cache     cache.Driver

	hooks Hooks

	state   State
	stateMu sync.RWMutex
}

// New builds an App in the Configuring state. Routes, middleware, and
// lifecycle hooks may only be registered before the first call to Listen
// or Run.
func New(opts ...Option) *App {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = logging.New(logging.WithService(cfg.serviceName, cfg.environment))
	}

	cacheDriver := cfg.cache
	if cacheDriver == nil {
		cacheDriver = cache.NewMemory(time.Minute)
	}

	container := di.New()
	_ = container.Register(di.Provider{
		Token: di.TokenOf[cache.Driver](),
		Scope: di.Singleton,
		Constructor: func(di.Resolver) (any, error) { return cacheDriver, nil },
	})

	var recorder *metrics.Recorder
	if cfg.enableMetrics {
		recorder = metrics.New(nil)
	}

	a := &App{
		config:    cfg,
		root:      route.NewGroup(""),
		container: container,
		logger:    logger,
		recorder:  recorder,
		cache:     cacheDriver,
		state:     Configuring,
	}

	a.router = router.New(
		router.WithValidator(cfg.validator),
		router.WithContainer(container),
		router.WithLogger(logger),
		router.WithMetrics(recorder),
	)
	if cfg.requestID {
		a.router.Use(router.RequestIDMiddleware())
	}
	if cfg.withCORS {
		a.router.UseCORS()
	}

	return a
}

// Container returns the DI container backing this App.
func (a *App) Container() *di.Container { return a.container }

// Logger returns the application's structured logger.
func (a *App) Logger() *logging.Logger { return a.logger }

// Cache returns the cache driver registered with this App.
func (a *App) Cache() cache.Driver { return a.cache }

// Register installs a DI provider. Once Listen/Run has frozen the router
// (and with it the container) during boot, Register returns an error
// wrapping errors.ErrRegisterAfterBoot (§4.C).
func (a *App) Register(p di.Provider) error {
	return a.container.Register(p)
}

// Use appends global middleware.
func (a *App) Use(mw ...router.HandlerFunc) {
	for _, m := range mw {
		a.router.Use(m)
	}
}

// Group creates a top-level route group (controller-equivalent, §GLOSSARY).
func (a *App) Group(prefix string, middleware ...router.HandlerFunc) *route.Group {
	handlers := make([]route.Handler, len(middleware))
	for i, m := range middleware {
		handlers[i] = m
	}
	return a.root.Group(prefix, handlers...)
}

// Handle registers a route directly on the application's root group.
func (a *App) Handle(method, path string, handler any, params ...route.Param) *route.Descriptor {
	d := a.root.Handle(method, path, handler, params...)
	a.fireRouteHook(d)
	return d
}

// Router exposes the assembled Router for advanced use (e.g. mounting as
// a sub-handler inside a larger net/http mux).
func (a *App) Router() *router.Router { return a.router }

// boot walks Configuring -> Initialising -> Ready -> Serving, running
// OnInit hooks and freezing the router and DI container along the way.
func (a *App) boot(ctx context.Context) error {
	if err := a.transition(Initialising); err != nil {
		return err
	}
	if err := a.runInitHooks(ctx); err != nil {
		return fmt.Errorf("turbo: initialisation failed: %w", err)
	}
	if err := a.router.Mount(a.root); err != nil {
		return fmt.Errorf("turbo: route assembly failed: %w", err)
	}
	a.router.Freeze()

	if err := a.transition(Ready); err != nil {
		return err
	}
	return a.transition(Serving)
}
