package user

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/delordemm1/realestate-api/internal/contextx"
	"github.com/delordemm1/realestate-api/internal/httpx"
)

// Handler holds the dependencies for the user module's HTTP handlers.
type Handler struct {
	service Service
	logger  *slog.Logger
	auth    func(huma.Context, func(huma.Context))
}

// NewHandler creates a new handler for the user module. auth guards the
// operations that need an authenticated user.
func NewHandler(service Service, logger *slog.Logger, auth func(huma.Context, func(huma.Context))) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		auth:    auth,
	}
}

// MessageResponse is the body of operations that only report an outcome.
type MessageResponse struct {
	Body struct {
		Detail string `json:"detail"`
	}
}

func message(detail string) *MessageResponse {
	resp := &MessageResponse{}
	resp.Body.Detail = detail
	return resp
}

// currentUserID reads the user set by the auth middleware.
func currentUserID(ctx context.Context) (string, error) {
	userID, ok := contextx.UserID(ctx)
	if !ok {
		return "", httpx.ToProblem(ctx, ErrUnauthorized)
	}
	return userID, nil
}

// RegisterRoutes sets up the routing for the user module.
// It defines all the API endpoints and connects them to their respective handler functions.
func (h *Handler) RegisterRoutes(api huma.API) {
	secured := func(op huma.Operation) huma.Operation {
		op.Security = []map[string][]string{{"bearer": {}}}
		op.Middlewares = huma.Middlewares{h.auth}
		return op
	}

	// --- Authentication Routes ---
	huma.Register(api, huma.Operation{
		OperationID:   "user-signup",
		Method:        http.MethodPost,
		Path:          "/users/signup",
		Summary:       "Register a new user",
		DefaultStatus: http.StatusCreated,
		Tags:          []string{"users"},
	}, h.RegisterHandler)

	huma.Register(api, huma.Operation{
		OperationID: "user-login",
		Method:      http.MethodPost,
		Path:        "/users/login",
		Summary:     "Log in a user",
		Tags:        []string{"users"},
	}, h.LoginHandler)

	huma.Register(api, secured(huma.Operation{
		OperationID: "user-logout",
		Method:      http.MethodPost,
		Path:        "/users/logout",
		Summary:     "Log out from all devices",
		Tags:        []string{"users"},
	}), h.LogoutHandler)

	huma.Register(api, huma.Operation{
		OperationID: "user-activation-status",
		Method:      http.MethodPost,
		Path:        "/users/activation-status",
		Summary:     "Check whether an account is active",
		Tags:        []string{"users"},
	}, h.ActivationStatusHandler)

	// --- Verification Routes ---
	huma.Register(api, huma.Operation{
		OperationID: "user-verify-code",
		Method:      http.MethodPost,
		Path:        "/users/verify-code",
		Summary:     "Verify a 6-digit code",
		Tags:        []string{"verification"},
	}, h.VerifyCodeHandler)

	huma.Register(api, huma.Operation{
		OperationID: "user-resend-code",
		Method:      http.MethodPost,
		Path:        "/users/verification/resend",
		Summary:     "Send a new verification code",
		Tags:        []string{"verification"},
	}, h.ResendCodeHandler)

	// --- Password Management Routes ---
	huma.Register(api, huma.Operation{
		OperationID: "user-forgot-password",
		Method:      http.MethodPost,
		Path:        "/users/password/forgot",
		Summary:     "Email a password reset code",
		Tags:        []string{"password"},
	}, h.ForgotPasswordHandler)

	huma.Register(api, huma.Operation{
		OperationID: "user-reset-password",
		Method:      http.MethodPost,
		Path:        "/users/password/reset",
		Summary:     "Set a new password with a reset code",
		Tags:        []string{"password"},
	}, h.ResetPasswordHandler)

	huma.Register(api, secured(huma.Operation{
		OperationID: "user-change-password",
		Method:      http.MethodPost,
		Path:        "/users/password/change",
		Summary:     "Change the current user's password",
		Tags:        []string{"password"},
	}), h.ChangePasswordHandler)

	// --- Profile Routes ---
	huma.Register(api, secured(huma.Operation{
		OperationID: "user-get-profile",
		Method:      http.MethodGet,
		Path:        "/users/profile",
		Summary:     "Get the current user's profile",
		Tags:        []string{"profile"},
	}), h.GetProfileHandler)

	huma.Register(api, secured(huma.Operation{
		OperationID: "user-update-profile",
		Method:      http.MethodPatch,
		Path:        "/users/profile",
		Summary:     "Update the current user's profile",
		Tags:        []string{"profile"},
	}), h.UpdateProfileHandler)

	huma.Register(api, secured(huma.Operation{
		OperationID: "user-toggle-seller-mode",
		Method:      http.MethodPost,
		Path:        "/users/profile/seller-mode",
		Summary:     "Toggle seller mode",
		Tags:        []string{"profile"},
	}), h.ToggleSellerModeHandler)

	huma.Register(api, huma.Operation{
		OperationID: "user-public-profile",
		Method:      http.MethodGet,
		Path:        "/users/{userId}/profile",
		Summary:     "Get another user's public profile",
		Tags:        []string{"profile"},
	}, h.PublicProfileHandler)
}
