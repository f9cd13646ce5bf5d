package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestIssueCodeAllowsThreePerHour(t *testing.T) {
	h := newHarness(t)
	h.acceptEmails()
	u := h.seedUser(t, "jane@gmail.com", false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, h.svc.IssueCode(ctx, u, PurposeActivation), "issue %d", i+1)
		h.clock.Advance(time.Minute)
	}

	err := h.svc.IssueCode(ctx, u, PurposeActivation)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Len(t, h.notifier.sent(), 3)
	assert.Len(t, h.repo.codesFor(u.ID, PurposeActivation), 3)

	// Once the first code leaves the window a new one may be issued, and the
	// consumed code that fell out of the window is purged.
	h.clock.Advance(58 * time.Minute)
	require.NoError(t, h.svc.IssueCode(ctx, u, PurposeActivation))
	assert.Len(t, h.repo.codesFor(u.ID, PurposeActivation), 3)
	assert.Len(t, h.repo.liveCodes(u.ID, PurposeActivation), 1)
}

func TestIssueCodeRateLimitIsPerPurpose(t *testing.T) {
	h := newHarness(t)
	h.acceptEmails()
	u := h.seedUser(t, "jane@gmail.com", true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, h.svc.IssueCode(ctx, u, PurposeActivation))
	}
	assert.NoError(t, h.svc.IssueCode(ctx, u, PurposePasswordReset))
}

func TestIssueCodeSupersedesOnlySamePurpose(t *testing.T) {
	h := newHarness(t)
	h.acceptEmails()
	u := h.seedUser(t, "jane@gmail.com", false)
	ctx := context.Background()
	h.codes = []string{"111111", "222222", "333333"}

	require.NoError(t, h.svc.IssueCode(ctx, u, PurposeActivation))
	require.NoError(t, h.svc.IssueCode(ctx, u, PurposePasswordReset))
	require.NoError(t, h.svc.IssueCode(ctx, u, PurposeActivation))

	activation := h.repo.liveCodes(u.ID, PurposeActivation)
	require.Len(t, activation, 1)
	assert.Equal(t, hashToken("333333"), activation[0].CodeHash)

	reset := h.repo.liveCodes(u.ID, PurposePasswordReset)
	require.Len(t, reset, 1)
	assert.Equal(t, hashToken("222222"), reset[0].CodeHash)

	// The superseded code no longer verifies.
	err := h.svc.VerifyCode(ctx, u.Email, "111111", PurposeActivation)
	assert.ErrorIs(t, err, ErrCodeMismatch)
}

func TestIssueCodeStoresOnlyHashAndEmailsPlaintext(t *testing.T) {
	h := newHarness(t)
	h.acceptEmails()
	u := h.seedUser(t, "jane@gmail.com", false)

	require.NoError(t, h.svc.IssueCode(context.Background(), u, PurposeActivation))

	codes := h.repo.codesFor(u.ID, PurposeActivation)
	require.Len(t, codes, 1)
	vc := codes[0]
	assert.NotEqual(t, "123456", vc.CodeHash)
	assert.Equal(t, 0, vc.Attempts)
	assert.Equal(t, 5, vc.MaxAttempts)
	assert.Equal(t, h.clock.Now().Add(15*time.Minute), vc.ExpiresAt)

	sent := h.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@gmail.com", sent[0].Recipient)
	assert.Equal(t, "Activate Your Account", sent[0].Content.EmailSubject)
	assert.Contains(t, sent[0].Content.EmailTextBody, "Your verification code is 123456. It will expire in 15 minutes.")
}

func TestIssueCodeResetSubject(t *testing.T) {
	h := newHarness(t)
	h.acceptEmails()
	u := h.seedUser(t, "jane@gmail.com", true)

	require.NoError(t, h.svc.IssueCode(context.Background(), u, PurposePasswordReset))
	assert.Equal(t, "Reset Your Password", h.notifier.sent()[0].Content.EmailSubject)
}

func TestIssueCodeEmailFailureLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	u := h.seedUser(t, "jane@gmail.com", false)
	ctx := context.Background()
	h.codes = []string{"111111", "222222"}

	h.notifier.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	require.NoError(t, h.svc.IssueCode(ctx, u, PurposeActivation))

	h.notifier.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp: connection refused")).Once()
	err := h.svc.IssueCode(ctx, u, PurposeActivation)
	assert.ErrorIs(t, err, ErrEmailDelivery)

	// The first code is still the live one and nothing else was stored.
	codes := h.repo.codesFor(u.ID, PurposeActivation)
	require.Len(t, codes, 1)
	assert.Nil(t, codes[0].ConsumedAt)
	assert.Equal(t, hashToken("111111"), codes[0].CodeHash)
}

func TestIssueCodeRejectsConcurrentIssue(t *testing.T) {
	h := newHarness(t)
	u := h.seedUser(t, "jane@gmail.com", false)
	h.locker.held[issueLockKey(u.ID, PurposeActivation)] = true

	err := h.svc.IssueCode(context.Background(), u, PurposeActivation)
	assert.ErrorIs(t, err, ErrIssueInProgress)
	h.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	assert.Empty(t, h.repo.codesFor(u.ID, PurposeActivation))
}

func TestIssueCodeReleasesLock(t *testing.T) {
	h := newHarness(t)
	h.acceptEmails()
	u := h.seedUser(t, "jane@gmail.com", false)

	require.NoError(t, h.svc.IssueCode(context.Background(), u, PurposeActivation))
	assert.Empty(t, h.locker.held)
}

func TestIssueCodeInvalidPurpose(t *testing.T) {
	h := newHarness(t)
	u := h.seedUser(t, "jane@gmail.com", false)

	err := h.svc.IssueCode(context.Background(), u, VerificationPurpose("login"))
	assert.ErrorIs(t, err, ErrInvalidPurpose)
}

func TestIssueCodeRepositoryFailureIsInternal(t *testing.T) {
	h := newHarness(t)
	u := h.seedUser(t, "jane@gmail.com", false)
	h.repo.failNext = errors.New("connection reset by peer")

	err := h.svc.IssueCode(context.Background(), u, PurposeActivation)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestVerifyActivationSucceedsOnce(t *testing.T) {
	h := newHarness(t)
	h.acceptEmails()
	u := h.seedUser(t, "jane@gmail.com", false)
	ctx := context.Background()
	require.NoError(t, h.svc.IssueCode(ctx, u, PurposeActivation))

	require.NoError(t, h.svc.VerifyCode(ctx, "Jane@Gmail.com ", "123456", PurposeActivation))
	assert.True(t, h.user(t, u.ID).IsActive)
	assert.Empty(t, h.repo.liveCodes(u.ID, PurposeActivation))

	err := h.svc.VerifyCode(ctx, u.Email, "123456", PurposeActivation)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestVerifyMismatchCountsAttempts(t *testing.T) {
	h := newHarness(t)
	h.acceptEmails()
	u := h.seedUser(t, "jane@gmail.com", false)
	ctx := context.Background()
	require.NoError(t, h.svc.IssueCode(ctx, u, PurposeActivation))

	for want := 4; want >= 0; want-- {
		err := h.svc.VerifyCode(ctx, u.Email, "000000", PurposeActivation)
		require.ErrorIs(t, err, ErrCodeMismatch)

		var de *DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, map[string]any{"triesLeft": want}, de.Context)
		assert.Contains(t, de.ProblemDetail(), "tries left.")
		assert.Equal(t, 5-want, h.repo.liveCodes(u.ID, PurposeActivation)[0].Attempts)
	}

	// Blocked: even the right code fails and attempts stay at the maximum.
	err := h.svc.VerifyCode(ctx, u.Email, "123456", PurposeActivation)
	assert.ErrorIs(t, err, ErrCodeBlocked)
	assert.Equal(t, 5, h.repo.liveCodes(u.ID, PurposeActivation)[0].Attempts)
	assert.False(t, h.user(t, u.ID).IsActive)
}

func TestVerifyMismatchDetail(t *testing.T) {
	h := newHarness(t)
	h.acceptEmails()
	u := h.seedUser(t, "jane@gmail.com", false)
	ctx := context.Background()
	require.NoError(t, h.svc.IssueCode(ctx, u, PurposeActivation))

	err := h.svc.VerifyCode(ctx, u.Email, "654321", PurposeActivation)

	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "Invalid code. 4 tries left.", de.ProblemDetail())
	assert.Equal(t, 400, de.ProblemStatus())
}

func TestVerifyExpiredEvenIfCorrect(t *testing.T) {
	h := newHarness(t)
	h.acceptEmails()
	u := h.seedUser(t, "jane@gmail.com", false)
	ctx := context.Background()
	require.NoError(t, h.svc.IssueCode(ctx, u, PurposeActivation))

	h.clock.Advance(14*time.Minute + 59*time.Second)
	h.clock.Advance(time.Second)

	err := h.svc.VerifyCode(ctx, u.Email, "123456", PurposeActivation)
	assert.ErrorIs(t, err, ErrCodeExpired)
	assert.False(t, h.user(t, u.ID).IsActive)
}

func TestVerifyExpiredTakesPrecedenceOverBlocked(t *testing.T) {
	h := newHarness(t)
	h.acceptEmails()
	u := h.seedUser(t, "jane@gmail.com", false)
	ctx := context.Background()
	require.NoError(t, h.svc.IssueCode(ctx, u, PurposeActivation))
	h.repo.state.codes[0].Attempts = 5

	h.clock.Advance(time.Hour)
	err := h.svc.VerifyCode(ctx, u.Email, "123456", PurposeActivation)
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestVerifyUnknownUser(t *testing.T) {
	h := newHarness(t)

	err := h.svc.VerifyCode(context.Background(), "ghost@gmail.com", "123456", PurposeActivation)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifyWithoutCode(t *testing.T) {
	h := newHarness(t)
	u := h.seedUser(t, "jane@gmail.com", false)

	err := h.svc.VerifyCode(context.Background(), u.Email, "123456", PurposeActivation)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestVerifyPasswordResetKeepsCodeLive(t *testing.T) {
	h := newHarness(t)
	h.acceptEmails()
	u := h.seedUser(t, "jane@gmail.com", true)
	ctx := context.Background()
	require.NoError(t, h.svc.IssueCode(ctx, u, PurposePasswordReset))

	require.NoError(t, h.svc.VerifyCode(ctx, u.Email, "123456", PurposePasswordReset))
	assert.Len(t, h.repo.liveCodes(u.ID, PurposePasswordReset), 1)

	// Verifying again still works because the code is only consumed by SetNewPassword.
	assert.NoError(t, h.svc.VerifyCode(ctx, u.Email, "123456", PurposePasswordReset))
}

func TestResendCode(t *testing.T) {
	h := newHarness(t)
	h.acceptEmails()
	inactive := h.seedUser(t, "new@gmail.com", false)
	active := h.seedUser(t, "old@gmail.com", true)
	ctx := context.Background()

	require.NoError(t, h.svc.ResendCode(ctx, inactive.Email, PurposeActivation))
	assert.Len(t, h.repo.liveCodes(inactive.ID, PurposeActivation), 1)

	assert.ErrorIs(t, h.svc.ResendCode(ctx, active.Email, PurposeActivation), ErrAlreadyActive)
	assert.NoError(t, h.svc.ResendCode(ctx, active.Email, PurposePasswordReset))
	assert.ErrorIs(t, h.svc.ResendCode(ctx, "ghost@gmail.com", PurposeActivation), ErrUserNotFound)
}

func TestGenerateNumericCode(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := generateNumericCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.Regexp(t, `^[1-9][0-9]{5}$`, code)
	}
}
