package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

const signupPoints = 500

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	UserID    string
	Email     string
	FirstName string
	LastName  string
}

// Register handles the business logic for creating a new user.
// The account starts inactive and an activation code is emailed.
func (s *service) Register(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)

	// Check if a user with the given email already exists
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		s.logger.Error("register: find user failed", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	newUserID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error("failed to generate user id", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	now := s.now()
	newUser := &User{
		ID:           newUserID.String(),
		Email:        email,
		PasswordHash: hashedPassword,
		IsActive:     false,
		Points:       signupPoints,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, newUser); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		s.logger.Error("failed to create user", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("user registered successfully", "user_id", newUser.ID)

	// The account exists even if the email fails; the user can ask for a new code.
	if err := s.IssueCode(ctx, newUser, PurposeActivation); err != nil {
		return newUser, err
	}
	return newUser, nil
}

// Login handles the business logic for authenticating a user.
func (s *service) Login(ctx context.Context, email, password, userAgent, ip string) (*LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Use a generic error to avoid telling attackers that the email exists.
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to find user by email", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if !checkPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	sessionID, err := s.sessions.CreateAuthSession(ctx, user.ID, userAgent, ip)
	if err != nil {
		s.logger.Error("failed to create session", "error", err, "user_id", user.ID)
		return nil, ErrInternal.WithCause(err)
	}

	token, err := s.tokens.Issue(user.ID, sessionID)
	if err != nil {
		s.logger.Error("failed to generate JWT", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	result := &LoginResult{Token: token, UserID: user.ID, Email: user.Email}
	profile, err := s.repo.FindProfile(ctx, user.ID)
	switch {
	case err == nil:
		result.FirstName = deref(profile.FirstName)
		result.LastName = deref(profile.LastName)
	case !errors.Is(err, ErrProfileNotFound):
		s.logger.Warn("login: load profile failed", "error", err, "user_id", user.ID)
	}

	s.logger.Info("user logged in successfully", "user_id", user.ID)
	return result, nil
}

// LogoutAll revokes every session of the user.
func (s *service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		s.logger.Error("logout: delete sessions failed", "error", err, "user_id", userID)
		return ErrInternal.WithCause(err)
	}
	s.logger.Info("user logged out from all devices", "user_id", userID)
	return nil
}

// CheckActivationStatus reports whether the account behind email is active.
func (s *service) CheckActivationStatus(ctx context.Context, email string) (bool, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, ErrUserNotFound
		}
		s.logger.Error("activation status: find user failed", "error", err)
		return false, ErrInternal.WithCause(err)
	}
	return user.IsActive, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
