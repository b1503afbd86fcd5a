// Package compiler implements the ahead-of-time Handler Compiler (§4.B): it
// inspects a handler function's parameter descriptors once, builds an
// extraction closure per parameter, and classifies the callable as
// static, sync, or async so the Request Executor can pick its dispatch
// path at assembly time rather than per request.
//
// Ctx is declared locally, duplicating the relevant slice of
// router.Context's behaviour, purely to avoid an import cycle: router
// imports compiler to compile routes, so compiler cannot import router
// back. Router's *Context satisfies Ctx structurally.
package compiler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	"github.com/turbo-dev/turbo/router/route"
	"github.com/turbo-dev/turbo/validation"
)

// Ctx is the view of a request context the compiler's generated binders
// need at request time.
type Ctx interface {
	PathParam(name string) (string, bool)
	QueryParam(name string) (string, bool)
	HeaderParam(name string) (string, bool)
	ParseBody() ([]byte, error)
	Request() *http.Request
	// Self returns the concrete context value itself, bound to
	// KindContext parameters.
	Self() any
}

// Classification is the compile-time dispatch tag (§GLOSSARY).
type Classification int

const (
	// Static routes were registered with a precomputed value; the handler,
	// if any, already ran once at compile time.
	Static Classification = iota
	// Sync routes invoke their handler directly within the executor's
	// goroutine with no suspension point before the call.
	Sync
	// Async routes require parsing the request body (or another
	// suspension-inducing step) before the handler can be invoked.
	Async
)

// Binder extracts and optionally validates one parameter at request time.
type Binder func(ctx Ctx) (reflect.Value, error)

// Compiled is the output record §4.B specifies: a callable plus its
// classification and, for static routes, the precomputed value.
type Compiled struct {
	Classification Classification
	StaticValue    any
	fn             reflect.Value
	binders        []Binder
}

// Invoke runs the compiled handler against ctx, applying every binder in
// position order before calling the underlying function. For a Static
// Compiled, it returns StaticValue without touching ctx or fn.
func (c *Compiled) Invoke(ctx Ctx) (any, error) {
	if c.Classification == Static {
		return c.StaticValue, nil
	}

	args := make([]reflect.Value, len(c.binders))
	for i, bind := range c.binders {
		v, err := bind(ctx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	out := c.fn.Call(args)
	return splitResult(out)
}

func splitResult(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if isErrorType(out[0].Type()) {
			if out[0].IsNil() {
				return nil, nil
			}
			return nil, out[0].Interface().(error)
		}
		return out[0].Interface(), nil
	default:
		var err error
		if e, ok := out[1].Interface().(error); ok {
			err = e
		}
		return out[0].Interface(), err
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func isErrorType(t reflect.Type) bool { return t.Implements(errorType) }

// CompileStatic wraps an already-computed value as a Compiled with no
// parameters and no function call at request time — registration strategy
// 1 of the Dispatch Assembler (§4.E).
func CompileStatic(value any) *Compiled {
	return &Compiled{Classification: Static, StaticValue: value}
}

// CompileStaticFunc invokes fn once, now, and captures the result as a
// precomputed static value. fn must take no arguments.
func CompileStaticFunc(fn any) (*Compiled, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.Type().NumIn() != 0 {
		return nil, fmt.Errorf("compiler: static handler must be a func() taking no arguments")
	}
	value, err := splitResult(fv.Call(nil))
	if err != nil {
		return nil, err
	}
	return CompileStatic(value), nil
}

// Compile inspects fn and params and produces a Compiled callable. fn must
// be a function accepting len(params) arguments, one per descriptor in
// order, and returning either (R), (R, error), or (error).
//
// Determinism: Compile is pure given (fn, params, adapter) and runs exactly
// once per route during Dispatch Assembly.
func Compile(fn any, params []route.Param, adapter validation.Adapter) (*Compiled, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("compiler: handler must be a function, got %T", fn)
	}
	ft := fv.Type()
	if ft.NumIn() != len(params) {
		return nil, fmt.Errorf("compiler: handler takes %d arguments, %d parameter descriptors declared", ft.NumIn(), len(params))
	}

	classification := Sync
	binders := make([]Binder, len(params))
	for i, p := range params {
		argType := ft.In(i)
		binder, err := buildBinder(p, argType, adapter)
		if err != nil {
			return nil, fmt.Errorf("compiler: parameter %d (%s %q): %w", i, p.Kind, p.Name, err)
		}
		binders[i] = binder
		if p.Kind == route.KindBody {
			classification = Async
		}
	}

	return &Compiled{Classification: classification, fn: fv, binders: binders}, nil
}

func buildBinder(p route.Param, argType reflect.Type, adapter validation.Adapter) (Binder, error) {
	switch p.Kind {
	case route.KindPath:
		return stringBinder(argType, p, adapter, func(c Ctx) (string, bool) { return c.PathParam(p.Name) }), nil
	case route.KindQuery:
		return stringBinder(argType, p, adapter, func(c Ctx) (string, bool) { return c.QueryParam(p.Name) }), nil
	case route.KindHeader:
		return stringBinder(argType, p, adapter, func(c Ctx) (string, bool) { return c.HeaderParam(p.Name) }), nil
	case route.KindBody:
		return bodyBinder(argType, p, adapter), nil
	case route.KindContext:
		return func(c Ctx) (reflect.Value, error) {
			return coerce(reflect.ValueOf(c.Self()), argType)
		}, nil
	case route.KindRequest:
		return func(c Ctx) (reflect.Value, error) {
			return coerce(reflect.ValueOf(c.Request()), argType)
		}, nil
	default:
		return nil, fmt.Errorf("unknown parameter kind %v", p.Kind)
	}
}

func stringBinder(argType reflect.Type, p route.Param, adapter validation.Adapter, extract func(Ctx) (string, bool)) Binder {
	return func(c Ctx) (reflect.Value, error) {
		raw, _ := extract(c)
		converted, err := convertString(raw, argType)
		if err != nil {
			return reflect.Value{}, err
		}
		return maybeValidate(converted.Interface(), argType, p, adapter)
	}
}

func bodyBinder(argType reflect.Type, p route.Param, adapter validation.Adapter) Binder {
	return func(c Ctx) (reflect.Value, error) {
		raw, err := c.ParseBody()
		if err != nil {
			return reflect.Value{}, err
		}
		if argType == reflect.TypeOf([]byte(nil)) {
			return maybeValidate(raw, argType, p, adapter)
		}

		target := reflect.New(argType)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, target.Interface()); err != nil {
				return reflect.Value{}, err
			}
		}
		return maybeValidate(target.Elem().Interface(), argType, p, adapter)
	}
}

func maybeValidate(value any, argType reflect.Type, p route.Param, adapter validation.Adapter) (reflect.Value, error) {
	if p.Schema == nil || adapter == nil || !adapter.HasValidation(p.Schema) {
		return coerce(reflect.ValueOf(value), argType)
	}
	validated, err := adapter.ValidateOrThrow(nil, p.Schema, value) //nolint:staticcheck // adapter contract takes context.Context; nil is acceptable here, no cancellation to propagate
	if err != nil {
		return reflect.Value{}, err
	}
	return coerce(reflect.ValueOf(validated), argType)
}

func coerce(v reflect.Value, target reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Zero(target), nil
	}
	if v.Type().AssignableTo(target) {
		return v, nil
	}
	if v.Type().ConvertibleTo(target) {
		return v.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot bind value of type %s to parameter of type %s", v.Type(), target)
}

func convertString(raw string, target reflect.Type) (reflect.Value, error) {
	switch target.Kind() {
	case reflect.String:
		return reflect.ValueOf(raw).Convert(target), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if raw == "" {
			return reflect.Zero(target), nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid integer %q: %w", raw, err)
		}
		return reflect.ValueOf(n).Convert(target), nil
	case reflect.Float32, reflect.Float64:
		if raw == "" {
			return reflect.Zero(target), nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid float %q: %w", raw, err)
		}
		return reflect.ValueOf(f).Convert(target), nil
	case reflect.Bool:
		if raw == "" {
			return reflect.Zero(target), nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid bool %q: %w", raw, err)
		}
		return reflect.ValueOf(b), nil
	default:
		return reflect.Value{}, fmt.Errorf("unsupported parameter type %s", target)
	}
}
