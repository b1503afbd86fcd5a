package validation

import (
	"context"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// StructTagAdapter validates Go struct values against their `validate:"..."`
// tags using github.com/go-playground/validator/v10. The App does not install
// it on its own (its default adapter is NoopAdapter) and has no boolean
// switch for it; it is used only when passed in through WithValidator.
type StructTagAdapter struct {
	validate *validator.Validate
}

// NewStructTagAdapter builds a StructTagAdapter with a shared, reusable
// *validator.Validate instance (struct-tag parsing is cached internally by
// the library, so one instance should be shared process-wide).
func NewStructTagAdapter() *StructTagAdapter {
	return &StructTagAdapter{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// HasValidation reports whether target is a struct (or pointer to struct)
// with at least one `validate` tag.
func (a *StructTagAdapter) HasValidation(target any) bool {
	t := reflect.TypeOf(target)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		if _, ok := t.Field(i).Tag.Lookup("validate"); ok {
			return true
		}
	}
	return false
}

// Validate runs struct-tag validation against value, which must be
// assignable to target's type (target is used only to determine the schema;
// value is what actually gets validated).
func (a *StructTagAdapter) Validate(_ context.Context, _ any, value any) Result {
	if err := a.validate.Struct(value); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return Result{Success: false, Errors: map[string]string{"_": err.Error()}}
		}
		errs := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			errs[fe.Field()] = fe.Tag()
		}
		return Result{Success: false, Errors: errs}
	}
	return Result{Success: true, Data: value}
}

// ValidateOrThrow validates value and returns a *errors.ValidationException
// on failure, per the Adapter contract.
func (a *StructTagAdapter) ValidateOrThrow(ctx context.Context, target any, value any) (any, error) {
	return validateOrThrow(a, ctx, target, value)
}
