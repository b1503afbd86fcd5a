package validation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	turboerrors "github.com/turbo-dev/turbo/errors"
	"github.com/turbo-dev/turbo/validation"
)

type signupRequest struct {
	Email string `validate:"required,email"`
	Age   int    `validate:"gte=0,lte=130"`
}

func TestStructTagAdapter_HasValidation_TrueForTaggedStruct(t *testing.T) {
	a := validation.NewStructTagAdapter()
	assert.True(t, a.HasValidation(signupRequest{}))
}

func TestStructTagAdapter_HasValidation_FalseForUntaggedStruct(t *testing.T) {
	a := validation.NewStructTagAdapter()
	type plain struct{ Name string }
	assert.False(t, a.HasValidation(plain{}))
}

func TestStructTagAdapter_Validate_SucceedsForValidValue(t *testing.T) {
	a := validation.NewStructTagAdapter()
	res := a.Validate(context.Background(), signupRequest{}, signupRequest{Email: "a@b.com", Age: 30})
	assert.True(t, res.Success)
}

func TestStructTagAdapter_Validate_FailsWithFieldErrors(t *testing.T) {
	a := validation.NewStructTagAdapter()
	res := a.Validate(context.Background(), signupRequest{}, signupRequest{Email: "not-an-email", Age: 999})
	require.False(t, res.Success)
	assert.Contains(t, res.Errors, "Email")
	assert.Contains(t, res.Errors, "Age")
}

func TestStructTagAdapter_ValidateOrThrow_ReturnsValidationException(t *testing.T) {
	a := validation.NewStructTagAdapter()
	_, err := a.ValidateOrThrow(context.Background(), signupRequest{}, signupRequest{Email: ""})

	var ve *turboerrors.ValidationException
	require.ErrorAs(t, err, &ve)
}

func TestNoopAdapter_NeverReportsValidationMetadata(t *testing.T) {
	a := validation.NoopAdapter{}
	assert.False(t, a.HasValidation(signupRequest{}))

	value, err := a.ValidateOrThrow(context.Background(), signupRequest{}, signupRequest{Email: "bad"})
	require.NoError(t, err)
	assert.Equal(t, signupRequest{Email: "bad"}, value)
}
