package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/delordemm1/realestate-api/internal/cache"
	"github.com/delordemm1/realestate-api/internal/config"
	"github.com/delordemm1/realestate-api/internal/notification"
	"github.com/delordemm1/realestate-api/internal/notification/templates"
	"github.com/delordemm1/realestate-api/internal/session"
)

// Service defines the interface for the user module's business logic.
// It orchestrates the flow of data between the handlers and the repository,
// and contains the core business rules.
type Service interface {
	// Verification codes
	IssueCode(ctx context.Context, user *User, purpose VerificationPurpose) error
	VerifyCode(ctx context.Context, email, code string, purpose VerificationPurpose) error
	ResendCode(ctx context.Context, email string, purpose VerificationPurpose) error

	// Passwords
	ForgotPassword(ctx context.Context, email string) error
	SetNewPassword(ctx context.Context, email, code, newPassword string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error

	// Auth
	Register(ctx context.Context, email, password string) (*User, error)
	Login(ctx context.Context, email, password, userAgent, ip string) (*LoginResult, error)
	LogoutAll(ctx context.Context, userID string) error
	CheckActivationStatus(ctx context.Context, email string) (bool, error)

	// Profile
	GetProfile(ctx context.Context, userID string) (*ProfileDetails, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*ProfileDetails, bool, error)
	GetPublicProfile(ctx context.Context, userID string) (*Profile, error)
	ToggleSellerMode(ctx context.Context, userID string) (bool, error)
}

// TokenIssuer mints access tokens bound to a session.
type TokenIssuer interface {
	Issue(userID, sessionID string) (string, error)
}

// service implements the Service interface.
type service struct {
	repo         Repository
	logger       *slog.Logger
	config       *config.Config
	notification notification.Service
	templates    *templates.Engine
	sessions     session.Provider
	tokens       TokenIssuer
	locker       cache.Locker
	now          func() time.Time
	generateCode func() (string, error)
}

// Config holds the dependencies for the user service.
type Config struct {
	Repo      Repository
	Logger    *slog.Logger
	Config    *config.Config
	Notifier  notification.Service
	Templates *templates.Engine
	Sessions  session.Provider
	Tokens    TokenIssuer
	Locker    cache.Locker

	// Now and GenerateCode default to time.Now and a crypto/rand 6-digit generator.
	Now          func() time.Time
	GenerateCode func() (string, error)
}

// NewService creates a new user service with the given dependencies.
func NewService(cfg *Config) Service {
	s := &service{
		repo:         cfg.Repo,
		logger:       cfg.Logger,
		config:       cfg.Config,
		notification: cfg.Notifier,
		templates:    cfg.Templates,
		sessions:     cfg.Sessions,
		tokens:       cfg.Tokens,
		locker:       cfg.Locker,
		now:          cfg.Now,
		generateCode: cfg.GenerateCode,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.generateCode == nil {
		s.generateCode = generateNumericCode
	}
	return s
}
