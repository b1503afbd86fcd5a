package turbo

import (
	"time"

	"github.com/turbo-dev/turbo/cache"
	"github.com/turbo-dev/turbo/logging"
	"github.com/turbo-dev/turbo/validation"
)

// Config holds the application's boot-time configuration, assembled from
// Option values before the state machine transitions out of Configuring.
type Config struct {
	serviceName     string
	environment     string
	addr            string
	shutdownTimeout time.Duration

	logger    *logging.Logger
	validator validation.Adapter
	cache     cache.Driver
	withCORS  bool
	requestID bool

	enableMetrics bool
	bannerEnabled bool
}

func defaultConfig() Config {
	return Config{
		serviceName:     "turbo-app",
		environment:     "development",
		addr:            ":8080",
		shutdownTimeout: 10 * time.Second,
		validator:       validation.NoopAdapter{},
		bannerEnabled:   true,
		requestID:       true,
	}
}

// Option configures an App at construction time.
type Option func(*Config)

// WithServiceName sets the service identity attached to every log line.
func WithServiceName(name string) Option {
	return func(c *Config) { c.serviceName = name }
}

// WithEnvironment sets the deployment environment attached to every log
// line (e.g. "production", "staging").
func WithEnvironment(env string) Option {
	return func(c *Config) { c.environment = env }
}

// WithAddr sets the listen address, e.g. ":8080".
func WithAddr(addr string) Option {
	return func(c *Config) { c.addr = addr }
}

// WithShutdownTimeout bounds how long OnShutdown hooks and the in-flight
// request drain get before the server is forced closed.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Config) { c.shutdownTimeout = d }
}

// WithLogger installs a structured logger built via logging.New.
func WithLogger(l *logging.Logger) Option {
	return func(c *Config) { c.logger = l }
}

// WithValidator installs the validation adapter the Handler Compiler binds
// request bodies and schema-annotated parameters through.
func WithValidator(a validation.Adapter) Option {
	return func(c *Config) { c.validator = a }
}

// WithCache installs the cache driver made available to handlers through
// the DI container as a CacheService singleton.
func WithCache(d cache.Driver) Option {
	return func(c *Config) { c.cache = d }
}

// WithCORS enables the CORS edge ahead of global middleware.
func WithCORS(enabled bool) Option {
	return func(c *Config) { c.withCORS = enabled }
}

// WithRequestID controls whether every request is assigned a correlation
// ID (enabled by default). Disable it when an upstream proxy already
// stamps one and global middleware ordering must stay minimal.
func WithRequestID(enabled bool) Option {
	return func(c *Config) { c.requestID = enabled }
}

// WithMetrics enables the optional Prometheus request counter.
func WithMetrics(enabled bool) Option {
	return func(c *Config) { c.enableMetrics = enabled }
}

// WithBanner controls whether the startup banner is printed.
func WithBanner(enabled bool) Option {
	return func(c *Config) { c.bannerEnabled = enabled }
}
