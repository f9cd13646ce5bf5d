package user

import (
	"context"
	"strings"

	"github.com/delordemm1/realestate-api/internal/httpx"
	"github.com/delordemm1/realestate-api/internal/validation"
)

// --- DTOs (Data Transfer Objects) ---

// RegisterRequest defines the structure for the user registration request body.
type RegisterRequest struct {
	Body struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
}

// LoginRequest defines the structure for the user login request body.
type LoginRequest struct {
	UserAgent    string `header:"User-Agent"`
	RealIP       string `header:"X-Real-IP"`
	ForwardedFor string `header:"X-Forwarded-For"`
	Body         struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
}

// LoginResponse defines the structure for a successful login response.
type LoginResponse struct {
	Body struct {
		Token     string `json:"token"`
		UserID    string `json:"userId"`
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
}

// ActivationStatusRequest asks whether an account is active.
type ActivationStatusRequest struct {
	Body struct {
		Email string `json:"email" validate:"required,email"`
	}
}

// ActivationStatusResponse reports the activation state.
type ActivationStatusResponse struct {
	Body struct {
		IsActive bool `json:"isActive"`
	}
}

// clientIP reads the proxy headers. It is empty for direct connections.
func (in *LoginRequest) clientIP() string {
	if in.RealIP != "" {
		return in.RealIP
	}
	if first, _, _ := strings.Cut(in.ForwardedFor, ","); first != "" {
		return strings.TrimSpace(first)
	}
	return ""
}

// --- Handlers ---

// RegisterHandler handles the user registration endpoint.
func (h *Handler) RegisterHandler(ctx context.Context, input *RegisterRequest) (*MessageResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}
	h.logger.Info("handling user registration request", "email", input.Body.Email)

	user, err := h.service.Register(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		h.logger.Warn("registration failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("user registered successfully", "user_id", user.ID)
	return message("Check your email for the activation code."), nil
}

// LoginHandler handles the user login endpoint.
func (h *Handler) LoginHandler(ctx context.Context, input *LoginRequest) (*LoginResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}
	h.logger.Info("handling user login request", "email", input.Body.Email)

	result, err := h.service.Login(ctx, input.Body.Email, input.Body.Password, input.UserAgent, input.clientIP())
	if err != nil {
		h.logger.Warn("login attempt failed", "email", input.Body.Email, "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &LoginResponse{}
	resp.Body.Token = result.Token
	resp.Body.UserID = result.UserID
	resp.Body.Email = result.Email
	resp.Body.FirstName = result.FirstName
	resp.Body.LastName = result.LastName
	return resp, nil
}

// LogoutHandler revokes every session of the current user.
func (h *Handler) LogoutHandler(ctx context.Context, _ *struct{}) (*MessageResponse, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.service.LogoutAll(ctx, userID); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return message("Successfully logged out from all devices."), nil
}

// ActivationStatusHandler reports whether the account is active.
func (h *Handler) ActivationStatusHandler(ctx context.Context, input *ActivationStatusRequest) (*ActivationStatusResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	active, err := h.service.CheckActivationStatus(ctx, input.Body.Email)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &ActivationStatusResponse{}
	resp.Body.IsActive = active
	return resp, nil
}
