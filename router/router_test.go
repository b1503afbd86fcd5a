package router_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbo-dev/turbo/router"
	"github.com/turbo-dev/turbo/router/route"
)

func TestRouter_StaticRoute(t *testing.T) {
	r := router.New()
	g := route.NewGroup("")
	g.Handle(http.MethodGet, "/health", func() string { return "ok" })
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouter_PathParamCapture(t *testing.T) {
	r := router.New()
	g := route.NewGroup("/users")
	g.Handle(http.MethodGet, "/:id", func(id string) string { return "user " + id }, route.Path("id"))
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/42", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user 42", rec.Body.String())
}

func TestRouter_TrailingSlashIsNormalisedToRegisteredRoute(t *testing.T) {
	r := router.New()
	g := route.NewGroup("")
	g.Handle(http.MethodGet, "/health", func() string { return "ok" })
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_DoubleSlashIsNormalisedBeforeParamMatch(t *testing.T) {
	r := router.New()
	g := route.NewGroup("/users")
	g.Handle(http.MethodGet, "/:id", func(id string) string { return "user " + id }, route.Path("id"))
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users//1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user 1", rec.Body.String())
}

func TestRouter_UnmatchedPathReturns404(t *testing.T) {
	r := router.New()
	g := route.NewGroup("")
	g.Handle(http.MethodGet, "/health", func() string { return "ok" })
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_MatchedPathWrongMethodReturns404(t *testing.T) {
	r := router.New()
	g := route.NewGroup("")
	g.Handle(http.MethodGet, "/health", func() string { return "ok" })
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_HeadRegisteredIndependentlyOfGet(t *testing.T) {
	r := router.New()
	g := route.NewGroup("")
	g.Handle(http.MethodGet, "/ping", func() string { return "pong" })
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/ping", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_MiddlewareOrderingGlobalThenControllerThenMethod(t *testing.T) {
	var order []string
	r := router.New()
	r.Use(func(c *router.Context) { order = append(order, "global") })

	g := route.NewGroup("/admin", router.HandlerFunc(func(c *router.Context) { order = append(order, "controller") }))
	d := g.Handle(http.MethodGet, "/panel", func() string { return "ok" })
	d.Use(router.HandlerFunc(func(c *router.Context) { order = append(order, "method") }))

	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/panel", nil))

	assert.Equal(t, []string{"global", "controller", "method"}, order)
}

func TestRouter_MiddlewareAbortShortCircuits(t *testing.T) {
	called := false
	r := router.New()
	r.Use(func(c *router.Context) {
		c.SetStatus(http.StatusUnauthorized)
		c.Abort()
	})

	g := route.NewGroup("")
	g.Handle(http.MethodGet, "/secret", func() string {
		called = true
		return "leaked"
	})
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/secret", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_BodyBindingParsesJSON(t *testing.T) {
	type createUser struct {
		Name string `json:"name"`
	}

	r := router.New()
	g := route.NewGroup("/users")
	g.Handle(http.MethodPost, "", func(u createUser) string { return "created " + u.Name }, route.Body(nil))
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"ada"}`))
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "created ada", rec.Body.String())
}

func TestRouter_HandlerErrorNormalizesToJSON500(t *testing.T) {
	r := router.New()
	g := route.NewGroup("")
	g.Handle(http.MethodGet, "/boom", func() (string, error) {
		return "", assert.AnError
	})
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_server_error")
}

func TestRouter_PanicRecoveredAsUnknownException(t *testing.T) {
	r := router.New()
	g := route.NewGroup("")
	g.Handle(http.MethodGet, "/panics", func() string {
		panic("boom")
	})
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panics", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_WildcardCapturesRemainder(t *testing.T) {
	r := router.New()
	g := route.NewGroup("")
	g.Handle(http.MethodGet, "/static/*", func(rest string) string { return rest }, route.Path("wildcard"))
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "css/app.css", rec.Body.String())
}

func TestRouter_ConstraintRejectsNonMatchingParam(t *testing.T) {
	r := router.New()
	g := route.NewGroup("")
	g.Handle(http.MethodGet, "/users/:id", func(id string) string { return id }, route.Path("id")).
		Where("id", `^\d+$`)
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/abc", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_CORSPreflightRespondsWithoutInvokingHandler(t *testing.T) {
	called := false
	r := router.New()
	r.UseCORS(router.WithAllowedOrigins([]string{"https://example.com"}))

	g := route.NewGroup("")
	g.Handle(http.MethodGet, "/data", func() string {
		called = true
		return "data"
	})
	require.NoError(t, r.Mount(g))
	r.Freeze()

	req := httptest.NewRequest(http.MethodOptions, "/data", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleStatic_NeverInvokesAnyFunction(t *testing.T) {
	r := router.New()
	g := route.NewGroup("")
	router.HandleStatic(g, http.MethodGet, "/version", router.JSON(http.StatusOK, map[string]string{"version": "1.0"}))
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1.0")
}

func TestRequestIDMiddleware_GeneratesIDWhenAbsent(t *testing.T) {
	r := router.New()
	r.Use(router.RequestIDMiddleware())
	g := route.NewGroup("")
	var seen string
	g.Handle(http.MethodGet, "/whoami", func(self any) string {
		seen = self.(*router.Context).RequestID()
		return "ok"
	}, route.Ctx())
	require.NoError(t, r.Mount(g))
	r.Freeze()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDMiddleware_ReusesInboundHeaderByDefault(t *testing.T) {
	r := router.New()
	r.Use(router.RequestIDMiddleware())
	g := route.NewGroup("")
	g.Handle(http.MethodGet, "/whoami", func() string { return "ok" })
	require.NoError(t, r.Mount(g))
	r.Freeze()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "client-supplied-id", rec.Header().Get("X-Request-ID"))
}

func TestRequestIDMiddleware_RejectsClientIDWhenDisallowed(t *testing.T) {
	r := router.New()
	r.Use(router.RequestIDMiddleware(router.WithRequestIDAllowClientID(false)))
	g := route.NewGroup("")
	g.Handle(http.MethodGet, "/whoami", func() string { return "ok" })
	require.NoError(t, r.Mount(g))
	r.Freeze()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.NotEqual(t, "client-supplied-id", rec.Header().Get("X-Request-ID"))
}
