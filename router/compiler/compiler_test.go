package compiler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	turboerrors "github.com/turbo-dev/turbo/errors"
	"github.com/turbo-dev/turbo/router/compiler"
	"github.com/turbo-dev/turbo/router/route"
	"github.com/turbo-dev/turbo/validation"
)

type fakeCtx struct {
	path, query, header map[string]string
	body                 []byte
	req                  *http.Request
}

func (f *fakeCtx) PathParam(name string) (string, bool)   { v, ok := f.path[name]; return v, ok }
func (f *fakeCtx) QueryParam(name string) (string, bool)  { v, ok := f.query[name]; return v, ok }
func (f *fakeCtx) HeaderParam(name string) (string, bool) { v, ok := f.header[name]; return v, ok }
func (f *fakeCtx) ParseBody() ([]byte, error)             { return f.body, nil }
func (f *fakeCtx) Request() *http.Request                 { return f.req }
func (f *fakeCtx) Self() any                              { return f }

func TestCompile_PathParamBinding(t *testing.T) {
	handler := func(id string) string { return "id=" + id }
	c, err := compiler.Compile(handler, []route.Param{route.Path("id")}, nil)
	require.NoError(t, err)
	assert.Equal(t, compiler.Sync, c.Classification)

	ctx := &fakeCtx{path: map[string]string{"id": "42"}}
	out, err := c.Invoke(ctx)
	require.NoError(t, err)
	assert.Equal(t, "id=42", out)
}

func TestCompile_IntegerQueryParam(t *testing.T) {
	handler := func(limit int) int { return limit * 2 }
	c, err := compiler.Compile(handler, []route.Param{route.Query("limit")}, nil)
	require.NoError(t, err)

	ctx := &fakeCtx{query: map[string]string{"limit": "5"}}
	out, err := c.Invoke(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, out)
}

func TestCompile_BodyParamForcesAsync(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	handler := func(p payload) string { return "hi " + p.Name }
	c, err := compiler.Compile(handler, []route.Param{route.Body(nil)}, nil)
	require.NoError(t, err)
	assert.Equal(t, compiler.Async, c.Classification)

	ctx := &fakeCtx{body: []byte(`{"name":"ada"}`)}
	out, err := c.Invoke(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hi ada", out)
}

func TestCompile_ErrorReturnPropagates(t *testing.T) {
	handler := func(id string) (string, error) {
		return "", assert.AnError
	}
	c, err := compiler.Compile(handler, []route.Param{route.Path("id")}, nil)
	require.NoError(t, err)

	_, err = c.Invoke(&fakeCtx{path: map[string]string{"id": "x"}})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestCompile_ArityMismatchFails(t *testing.T) {
	handler := func(a, b string) string { return a + b }
	_, err := compiler.Compile(handler, []route.Param{route.Path("a")}, nil)
	require.Error(t, err)
}

func TestCompileStatic_ReturnsPrecomputedValueWithoutInvocation(t *testing.T) {
	c := compiler.CompileStatic("ok")
	out, err := c.Invoke(nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, compiler.Static, c.Classification)
}

func TestCompileStaticFunc_RunsOnceAtCompileTime(t *testing.T) {
	calls := 0
	fn := func() string {
		calls++
		return "computed"
	}
	c, err := compiler.CompileStaticFunc(fn)
	require.NoError(t, err)

	for range 3 {
		out, err := c.Invoke(nil)
		require.NoError(t, err)
		assert.Equal(t, "computed", out)
	}
	assert.Equal(t, 1, calls)
}

type stubAdapter struct{ fail bool }

func (s stubAdapter) HasValidation(target any) bool { return true }
func (s stubAdapter) Validate(ctx context.Context, target, value any) validation.Result {
	if s.fail {
		return validation.Result{Success: false, Errors: map[string]string{"Name": "required"}}
	}
	return validation.Result{Success: true, Data: value}
}
func (s stubAdapter) ValidateOrThrow(ctx context.Context, target, value any) (any, error) {
	if s.fail {
		return nil, turboerrors.NewValidationException(map[string]string{"Name": "required"})
	}
	return value, nil
}

func TestCompile_BodyValidationFailureSurfacesAsError(t *testing.T) {
	type payload struct{ Name string }
	handler := func(p payload) string { return p.Name }
	c, err := compiler.Compile(handler, []route.Param{route.Body(payload{})}, stubAdapter{fail: true})
	require.NoError(t, err)

	_, err = c.Invoke(&fakeCtx{body: []byte(`{}`)})
	require.Error(t, err)
}
