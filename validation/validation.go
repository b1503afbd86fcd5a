// Package validation defines the validator adapter contract consumed by the
// handler compiler (§4.B, §4.H). The core never references a concrete
// schema library directly; it calls through this interface.
package validation

import (
	"context"

	turboerrors "github.com/turbo-dev/turbo/errors"
)

// Result is the outcome of a non-throwing Validate call.
type Result struct {
	Success bool
	Data    any
	Errors  map[string]string
}

// Adapter is the capability surface a validation backend provides.
type Adapter interface {
	// HasValidation reports whether target carries validation metadata the
	// adapter understands (e.g. struct tags, a registered schema).
	HasValidation(target any) bool

	// Validate runs validation without raising an exception.
	Validate(ctx context.Context, target any, value any) Result

	// ValidateOrThrow runs validation and returns a
	// *turboerrors.ValidationException on failure.
	ValidateOrThrow(ctx context.Context, target any, value any) (any, error)
}

// NoopAdapter is the default Adapter installed when a Router is built
// without an explicit validation backend: every target is reported as
// having no validation metadata, so the Handler Compiler binds raw values
// unchanged.
type NoopAdapter struct{}

func (NoopAdapter) HasValidation(target any) bool { return false }

func (NoopAdapter) Validate(ctx context.Context, target, value any) Result {
	return Result{Success: true, Data: value}
}

func (NoopAdapter) ValidateOrThrow(ctx context.Context, target, value any) (any, error) {
	return value, nil
}

// validateOrThrow is a helper concrete adapters can embed/call: it runs the
// adapter's own Validate, converts a failing Result into a
// *ValidationException, and otherwise returns Result.Data, which the
// compiler binds instead of the raw value.
func validateOrThrow(a Adapter, ctx context.Context, target, value any) (any, error) {
	res := a.Validate(ctx, target, value)
	if !res.Success {
		return nil, turboerrors.NewValidationException(res.Errors)
	}
	return res.Data, nil
}
