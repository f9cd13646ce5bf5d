package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/delordemm1/realestate-api/internal/cache"
	"github.com/delordemm1/realestate-api/internal/metrics"
	"github.com/delordemm1/realestate-api/internal/notification"
	"github.com/delordemm1/realestate-api/internal/notification/templates"
)

const issueLockTTL = 30 * time.Second

func issueLockKey(userID string, purpose VerificationPurpose) string {
	return fmt.Sprintf("verification:issue:%s:%s", userID, purpose)
}

// IssueCode creates a fresh 6-digit code for (user, purpose), supersedes the previous live
// code and emails the plaintext to the user. Either the code is stored and the email is
// sent, or nothing changes.
func (s *service) IssueCode(ctx context.Context, user *User, purpose VerificationPurpose) error {
	if !purpose.Valid() {
		return ErrInvalidPurpose
	}

	release, err := s.locker.Acquire(ctx, issueLockKey(user.ID, purpose), issueLockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			metrics.VerificationCodesIssued.WithLabelValues(string(purpose), "in_progress").Inc()
			return ErrIssueInProgress
		}
		s.logger.Error("issue code: acquire lock failed", "error", err, "user_id", user.ID)
		return ErrInternal.WithCause(err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("issue code: release lock failed", "error", err, "user_id", user.ID)
		}
	}()

	vcfg := s.config.Verification
	now := s.now()
	windowStart := now.Add(-time.Duration(vcfg.RateLimitWindowMinutes) * time.Minute)

	err = s.repo.WithTx(ctx, func(repo Repository) error {
		recent, err := repo.CountVerificationCodesSince(ctx, user.ID, purpose, windowStart)
		if err != nil {
			return err
		}
		if recent >= vcfg.RateLimitCount {
			return ErrRateLimited
		}

		if err := repo.PurgeConsumedVerificationCodes(ctx, user.ID, purpose, windowStart); err != nil {
			return err
		}
		if err := repo.SupersedeVerificationCodes(ctx, user.ID, purpose, now); err != nil {
			return err
		}

		code, err := s.generateCode()
		if err != nil {
			return err
		}
		vc := &VerificationCode{
			UserID:      user.ID,
			Purpose:     purpose,
			CodeHash:    hashToken(code),
			Attempts:    0,
			MaxAttempts: vcfg.MaxAttempts,
			ExpiresAt:   now.Add(time.Duration(vcfg.TTLMinutes) * time.Minute),
			CreatedAt:   now,
		}
		if err := repo.CreateVerificationCode(ctx, vc); err != nil {
			return err
		}

		if err := s.sendCode(ctx, user, purpose, code); err != nil {
			return ErrEmailDelivery.WithCause(err)
		}
		return nil
	})

	switch {
	case err == nil:
		metrics.VerificationCodesIssued.WithLabelValues(string(purpose), "sent").Inc()
		s.logger.Info("verification code issued", "user_id", user.ID, "purpose", purpose)
		return nil
	case errors.Is(err, ErrRateLimited):
		metrics.VerificationCodesIssued.WithLabelValues(string(purpose), "rate_limited").Inc()
		return err
	case errors.Is(err, ErrEmailDelivery):
		metrics.VerificationCodesIssued.WithLabelValues(string(purpose), "email_failed").Inc()
		s.logger.Error("issue code: email delivery failed", "error", err, "user_id", user.ID, "purpose", purpose)
		return err
	default:
		metrics.VerificationCodesIssued.WithLabelValues(string(purpose), "error").Inc()
		s.logger.Error("issue code: transaction failed", "error", err, "user_id", user.ID, "purpose", purpose)
		return ErrInternal.WithCause(err)
	}
}

func (s *service) sendCode(ctx context.Context, user *User, purpose VerificationPurpose, code string) error {
	handle := templates.ActivationCode
	if purpose == PurposePasswordReset {
		handle = templates.PasswordResetCode
	}
	data := templates.VerificationCodeData{
		Email:          user.Email,
		Code:           code,
		ExpiresMinutes: s.config.Verification.TTLMinutes,
		SupportEmail:   s.config.SMTP.From,
	}
	return notification.SendTemplate(ctx, s.notification, s.templates, handle, user.Email, data)
}

// VerifyCode checks a submitted code against the live code of (user, purpose).
// A wrong code costs one attempt even though the call fails. Activation codes are
// consumed on success; password reset codes stay live until SetNewPassword.
func (s *service) VerifyCode(ctx context.Context, email, code string, purpose VerificationPurpose) error {
	if !purpose.Valid() {
		return ErrInvalidPurpose
	}

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("verify code: find user failed", "error", err)
		return ErrInternal.WithCause(err)
	}

	now := s.now()
	var mismatch error
	err = s.repo.WithTx(ctx, func(repo Repository) error {
		vc, err := repo.GetLatestLiveVerificationCode(ctx, user.ID, purpose)
		if err != nil {
			return err
		}
		if vc.Expired(now) {
			return ErrCodeExpired
		}
		if vc.Blocked() {
			return ErrCodeBlocked
		}

		if !codeMatches(code, vc.CodeHash) {
			attempts, maxAttempts, err := repo.IncrementVerificationAttempt(ctx, vc.ID)
			if err != nil {
				return err
			}
			triesLeft := maxAttempts - attempts
			mismatch = ErrCodeMismatch.
				WithDetail(fmt.Sprintf("Invalid code. %d tries left.", triesLeft)).
				WithContext(map[string]any{"triesLeft": triesLeft})
			// Commit the attempt; the mismatch is reported after the transaction.
			return nil
		}

		if purpose == PurposeActivation {
			user.IsActive = true
			user.UpdatedAt = now
			if err := repo.Update(ctx, user); err != nil {
				return err
			}
			return repo.ConsumeVerificationCode(ctx, vc.ID, now)
		}
		return nil
	})
	if err != nil {
		if isDomainError(err) && !errors.Is(err, ErrInternal) {
			metrics.VerificationAttempts.WithLabelValues(string(purpose), verifyResult(err)).Inc()
			return err
		}
		s.logger.Error("verify code: transaction failed", "error", err, "user_id", user.ID)
		return ErrInternal.WithCause(err)
	}
	if mismatch != nil {
		metrics.VerificationAttempts.WithLabelValues(string(purpose), "mismatch").Inc()
		return mismatch
	}

	metrics.VerificationAttempts.WithLabelValues(string(purpose), "success").Inc()
	s.logger.Info("verification code accepted", "user_id", user.ID, "purpose", purpose)
	return nil
}

func verifyResult(err error) string {
	switch {
	case errors.Is(err, ErrCodeNotFound):
		return "not_found"
	case errors.Is(err, ErrCodeExpired):
		return "expired"
	case errors.Is(err, ErrCodeBlocked):
		return "blocked"
	case errors.Is(err, ErrInvalidCode):
		return "invalid"
	default:
		return "error"
	}
}

// ResendCode issues a new code for an existing user. Activation codes are only
// sent to accounts that are not active yet.
func (s *service) ResendCode(ctx context.Context, email string, purpose VerificationPurpose) error {
	if !purpose.Valid() {
		return ErrInvalidPurpose
	}

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("resend code: find user failed", "error", err)
		return ErrInternal.WithCause(err)
	}
	if purpose == PurposeActivation && user.IsActive {
		return ErrAlreadyActive
	}

	return s.IssueCode(ctx, user, purpose)
}
