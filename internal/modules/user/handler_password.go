package user

import (
	"context"

	"github.com/delordemm1/realestate-api/internal/httpx"
	"github.com/delordemm1/realestate-api/internal/validation"
)

// --- DTOs ---

// ForgotPasswordRequest defines the request body for initiating a password reset.
type ForgotPasswordRequest struct {
	Body struct {
		Email string `json:"email" validate:"required,email"`
	}
}

// ResetPasswordRequest defines the request body for finalizing a password reset.
type ResetPasswordRequest struct {
	Body struct {
		Email       string `json:"email" validate:"required,email"`
		Code        string `json:"code" validate:"required,len=6,numeric"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}
}

// ChangePasswordRequest changes the password of the authenticated user.
type ChangePasswordRequest struct {
	Body struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=8"`
	}
}

// --- Handlers ---

// ForgotPasswordHandler emails a reset code to a registered address.
func (h *Handler) ForgotPasswordHandler(ctx context.Context, input *ForgotPasswordRequest) (*MessageResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}
	h.logger.Info("handling forgot password request", "email", input.Body.Email)

	if err := h.service.ForgotPassword(ctx, input.Body.Email); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Verification code sent to your email."), nil
}

// ResetPasswordHandler sets a new password using a reset code.
func (h *Handler) ResetPasswordHandler(ctx context.Context, input *ResetPasswordRequest) (*MessageResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.SetNewPassword(ctx, input.Body.Email, input.Body.Code, input.Body.NewPassword); err != nil {
		h.logger.Warn("password reset failed", "email", input.Body.Email, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Password reset successful. You have been logged out of all devices."), nil
}

// ChangePasswordHandler changes the password of the current user.
func (h *Handler) ChangePasswordHandler(ctx context.Context, input *ChangePasswordRequest) (*MessageResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.ChangePassword(ctx, userID, input.Body.CurrentPassword, input.Body.NewPassword); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Password updated successfully. You have been logged out of all devices."), nil
}
