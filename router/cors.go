package router

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSOption configures the CORS edge (§4.G).
type CORSOption func(*corsConfig)

type corsConfig struct {
	allowedOrigins    []string
	allowedMethods    []string
	allowedHeaders    []string
	exposedHeaders    []string
	allowCredentials  bool
	maxAge            int
	allowAllOrigins   bool
	allowOriginFunc   func(origin string) bool
}

func defaultCORSConfig() *corsConfig {
	return &corsConfig{
		allowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		allowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		maxAge:         3600,
	}
}

// WithAllowedOrigins restricts CORS to an explicit origin list.
func WithAllowedOrigins(origins []string) CORSOption {
	return func(cfg *corsConfig) {
		cfg.allowedOrigins = origins
		cfg.allowAllOrigins = false
	}
}

// WithAllowAllOrigins sets Access-Control-Allow-Origin: * for every
// request that carries an Origin header. The literal "*" is never sent
// together with credentials; see WithAllowCredentials.
func WithAllowAllOrigins(allow bool) CORSOption {
	return func(cfg *corsConfig) { cfg.allowAllOrigins = allow }
}

// WithAllowedMethods overrides the preflight Allow-Methods list.
func WithAllowedMethods(methods []string) CORSOption {
	return func(cfg *corsConfig) { cfg.allowedMethods = methods }
}

// WithAllowedHeaders overrides the preflight Allow-Headers list.
func WithAllowedHeaders(headers []string) CORSOption {
	return func(cfg *corsConfig) { cfg.allowedHeaders = headers }
}

// WithExposedHeaders sets the headers exposed to browser-side JavaScript.
func WithExposedHeaders(headers []string) CORSOption {
	return func(cfg *corsConfig) { cfg.exposedHeaders = headers }
}

// WithAllowCredentials enables credentialed requests. Combined with
// WithAllowAllOrigins, the origin echoed back is the request's own Origin
// header rather than "*", since browsers reject a literal wildcard
// alongside Access-Control-Allow-Credentials: true.
func WithAllowCredentials(allow bool) CORSOption {
	return func(cfg *corsConfig) { cfg.allowCredentials = allow }
}

// WithMaxAge sets the preflight cache lifetime in seconds.
func WithMaxAge(seconds int) CORSOption {
	return func(cfg *corsConfig) { cfg.maxAge = seconds }
}

// WithAllowOriginFunc installs a dynamic origin predicate, checked instead
// of the static allow-list.
func WithAllowOriginFunc(fn func(origin string) bool) CORSOption {
	return func(cfg *corsConfig) { cfg.allowOriginFunc = fn }
}

func corsMiddleware(cfg *corsConfig) HandlerFunc {
	allowedMethodsHeader := strings.Join(cfg.allowedMethods, ", ")
	allowedHeadersHeader := strings.Join(cfg.allowedHeaders, ", ")
	exposedHeadersHeader := strings.Join(cfg.exposedHeaders, ", ")
	maxAgeHeader := strconv.Itoa(cfg.maxAge)

	return func(c *Context) {
		origin := c.req.Header.Get("Origin")
		if origin == "" {
			return
		}

		allowedOrigin := resolveAllowedOrigin(cfg, origin)
		if allowedOrigin == "" {
			return
		}

		header := c.Response.Header()
		header.Set("Access-Control-Allow-Origin", allowedOrigin)
		header.Set("Vary", "Origin")

		if cfg.allowCredentials {
			if allowedOrigin == "*" {
				header.Set("Access-Control-Allow-Origin", origin)
			}
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		if exposedHeadersHeader != "" {
			header.Set("Access-Control-Expose-Headers", exposedHeadersHeader)
		}

		if c.req.Method == http.MethodOptions {
			header.Set("Access-Control-Allow-Methods", allowedMethodsHeader)
			header.Set("Access-Control-Allow-Headers", allowedHeadersHeader)
			header.Set("Access-Control-Max-Age", maxAgeHeader)
			c.SetStatus(http.StatusNoContent)
			c.Abort()
		}
	}
}

func resolveAllowedOrigin(cfg *corsConfig, origin string) string {
	switch {
	case cfg.allowAllOrigins:
		return "*"
	case cfg.allowOriginFunc != nil:
		if cfg.allowOriginFunc(origin) {
			return origin
		}
	default:
		for _, allowed := range cfg.allowedOrigins {
			if allowed == origin {
				return origin
			}
		}
	}
	return ""
}
