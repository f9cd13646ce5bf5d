package user

import (
	"context"
	"errors"

	"github.com/delordemm1/realestate-api/internal/metrics"
	"github.com/delordemm1/realestate-api/internal/notification"
	"github.com/delordemm1/realestate-api/internal/notification/templates"
)

// passwordHistoryDepth is how many previous hashes are kept and checked on change.
const passwordHistoryDepth = 6

// ForgotPassword emails a password reset code to a registered user.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound.WithDetail("User with this email does not exist.")
		}
		s.logger.Error("forgot password: find user failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	return s.IssueCode(ctx, user, PurposePasswordReset)
}

// SetNewPassword finishes a password reset: it re-validates the reset code, replaces the
// password, consumes the code and logs the user out everywhere.
func (s *service) SetNewPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound.WithDetail("User with this email does not exist.")
		}
		s.logger.Error("set new password: find user failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	now := s.now()
	err = s.repo.WithTx(ctx, func(repo Repository) error {
		vc, err := repo.GetLiveVerificationCodeByHash(ctx, user.ID, PurposePasswordReset, hashToken(code))
		if err != nil {
			if errors.Is(err, ErrCodeNotFound) {
				return ErrInvalidCode
			}
			return err
		}
		if vc.Expired(now) {
			return ErrCodeExpired.WithDetail("Verification code has expired.")
		}
		if vc.Blocked() {
			return ErrCodeBlocked.WithDetail("Too many incorrect attempts. Please try again later.")
		}
		if checkPasswordHash(newPassword, user.PasswordHash) {
			return ErrSamePassword
		}

		// Hash only once the code has been accepted.
		newHash, err := hashPassword(newPassword)
		if err != nil {
			return err
		}
		if err := s.replacePassword(ctx, repo, user, newHash); err != nil {
			return err
		}
		return repo.ConsumeVerificationCode(ctx, vc.ID, now)
	})
	if err != nil {
		if isDomainError(err) && !errors.Is(err, ErrInternal) {
			return err
		}
		s.logger.Error("set new password: transaction failed", "error", err, "user_id", user.ID)
		return ErrInternal.WithCause(err)
	}

	metrics.PasswordChanges.WithLabelValues("reset").Inc()
	s.logger.Info("user password has been reset successfully", "user_id", user.ID)
	s.notifyPasswordChanged(ctx, user)
	return nil
}

// ChangePassword replaces the password of an authenticated user. The new password must
// differ from the current one and from the last six.
func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("change password: find user failed", "error", err, "user_id", userID)
		return ErrInternal.WithCause(err)
	}

	if !checkPasswordHash(currentPassword, user.PasswordHash) {
		return ErrInvalidCurrentPassword
	}
	if checkPasswordHash(newPassword, user.PasswordHash) {
		return ErrSamePassword
	}

	history, err := s.repo.ListPasswordHistory(ctx, user.ID, passwordHistoryDepth)
	if err != nil {
		s.logger.Error("change password: list history failed", "error", err, "user_id", userID)
		return ErrInternal.WithCause(err)
	}
	for _, h := range history {
		if checkPasswordHash(newPassword, h.PasswordHash) {
			return ErrSamePassword.WithDetail("You cannot reuse any of your last 6 passwords.")
		}
	}

	newHash, err := hashPassword(newPassword)
	if err != nil {
		s.logger.Error("change password: hash password failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	if err := s.repo.WithTx(ctx, func(repo Repository) error {
		return s.replacePassword(ctx, repo, user, newHash)
	}); err != nil {
		s.logger.Error("change password: transaction failed", "error", err, "user_id", userID)
		return ErrInternal.WithCause(err)
	}

	metrics.PasswordChanges.WithLabelValues("change").Inc()
	s.logger.Info("user password changed", "user_id", user.ID)
	s.notifyPasswordChanged(ctx, user)
	return nil
}

// replacePassword archives the current hash, stores the new one and revokes every session.
func (s *service) replacePassword(ctx context.Context, repo Repository, user *User, newHash string) error {
	now := s.now()
	if err := repo.AppendPasswordHistory(ctx, user.ID, user.PasswordHash, now); err != nil {
		return err
	}
	if err := repo.TrimPasswordHistory(ctx, user.ID, passwordHistoryDepth); err != nil {
		return err
	}
	if err := repo.UpdatePassword(ctx, user.ID, newHash, now); err != nil {
		return err
	}
	return repo.DeleteUserSessions(ctx, user.ID)
}

// notifyPasswordChanged runs after commit; a failed email does not undo the change.
func (s *service) notifyPasswordChanged(ctx context.Context, user *User) {
	data := templates.PasswordChangedData{
		Email:        user.Email,
		SupportEmail: s.config.SMTP.From,
	}
	if err := notification.SendTemplate(ctx, s.notification, s.templates, templates.PasswordChanged, user.Email, data); err != nil {
		s.logger.Error("failed to send password changed email", "error", err, "user_id", user.ID)
	}
}
