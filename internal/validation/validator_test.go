package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifyInput struct {
	Email   string `json:"email" validate:"required,email"`
	Code    string `json:"code" validate:"required,len=6,numeric"`
	Purpose string `json:"purpose" validate:"required,oneof=activation password_reset"`
}

type passwordInput struct {
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func TestValidateStructOK(t *testing.T) {
	err := ValidateStruct(verifyInput{Email: "jane@gmail.com", Code: "042017", Purpose: "activation"})
	assert.NoError(t, err)
}

func TestValidateStructInvalidEmailSummary(t *testing.T) {
	err := ValidateStruct(verifyInput{Email: "not-an-email", Code: "12", Purpose: "activation"})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invalid email, and 1 other error", verr.ProblemDetail())
	assert.Equal(t, 400, verr.ProblemStatus())

	ctx := verr.ProblemContext().(map[string]any)
	fields := ctx["fields"].(FieldErrors)
	assert.Equal(t, []string{"must be a valid email"}, fields["email"])
	assert.Equal(t, []string{"must be exactly 6 characters"}, fields["code"])
}

func TestValidateStructOneOf(t *testing.T) {
	err := ValidateStruct(verifyInput{Email: "jane@gmail.com", Code: "123456", Purpose: "login"})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "purpose must be one of: activation, password_reset", verr.Error())
}

func TestValidateStructEqField(t *testing.T) {
	err := ValidateStruct(passwordInput{Password: "longenough", ConfirmPassword: "different"})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "confirmPassword must match password", verr.Error())
}

func TestValidateStructNumeric(t *testing.T) {
	err := ValidateStruct(verifyInput{Email: "jane@gmail.com", Code: "12a456", Purpose: "activation"})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "code must contain only digits", verr.Error())
}
