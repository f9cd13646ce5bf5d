package user

import (
	"context"

	"github.com/delordemm1/realestate-api/internal/httpx"
	"github.com/delordemm1/realestate-api/internal/validation"
)

// --- DTOs ---

// VerifyCodeRequest submits a 6-digit code for a purpose.
type VerifyCodeRequest struct {
	Body struct {
		Email   string `json:"email" validate:"required,email"`
		Code    string `json:"code" validate:"required,len=6,numeric"`
		Purpose string `json:"purpose" enum:"activation,password_reset" validate:"required,oneof=activation password_reset"`
	}
}

// ResendCodeRequest asks for a new code.
type ResendCodeRequest struct {
	Body struct {
		Email   string `json:"email" validate:"required,email"`
		Purpose string `json:"purpose" enum:"activation,password_reset" validate:"required,oneof=activation password_reset"`
	}
}

// --- Handlers ---

// VerifyCodeHandler checks a code. Activation codes activate the account;
// password reset codes stay valid for /users/password/reset.
func (h *Handler) VerifyCodeHandler(ctx context.Context, input *VerifyCodeRequest) (*MessageResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	purpose := VerificationPurpose(input.Body.Purpose)
	if err := h.service.VerifyCode(ctx, input.Body.Email, input.Body.Code, purpose); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	if purpose == PurposePasswordReset {
		return message("Code verified. Now you can reset your password."), nil
	}
	return message("Verification successful."), nil
}

// ResendCodeHandler sends a fresh code, subject to the hourly limit.
func (h *Handler) ResendCodeHandler(ctx context.Context, input *ResendCodeRequest) (*MessageResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.ResendCode(ctx, input.Body.Email, VerificationPurpose(input.Body.Purpose)); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Verification code sent to your email."), nil
}
