package user

import (
	"fmt"
	"net/http"
)

// DomainError is the user module's error type. It carries enough metadata for
// httpx.ToProblem to render a problem+json response without a type switch.
type DomainError struct {
	Code       string // stable business code, e.g. ErrCodeMismatch
	HTTPStatus int
	Title      string // empty means http.StatusText(HTTPStatus)
	Message    string // log-oriented text, used as detail when Detail is empty
	Detail     string // client-facing text
	TypeURI    string // empty means urn:problem:<kebab code>
	Context    any    // extension payload, e.g. {"triesLeft": 2}

	cause error
}

func (e *DomainError) Error() string {
	msg := e.ProblemDetail()
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

func (e *DomainError) Unwrap() error { return e.cause }

// Is compares codes, so a copy made by WithCause or WithDetail still matches
// its sentinel under errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code
}

// WithCause returns a copy wrapping err.
func (e *DomainError) WithCause(err error) *DomainError {
	if err == nil {
		return e
	}
	cp := *e
	cp.cause = err
	return &cp
}

// WithDetail returns a copy with a different client-facing message.
func (e *DomainError) WithDetail(detail string) *DomainError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithContext returns a copy carrying an extension payload.
func (e *DomainError) WithContext(ctx any) *DomainError {
	cp := *e
	cp.Context = ctx
	return &cp
}

// httpx.DomainProblem

func (e *DomainError) ProblemCode() string { return e.Code }

func (e *DomainError) ProblemStatus() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

func (e *DomainError) ProblemTitle() string { return e.Title }

func (e *DomainError) ProblemDetail() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

func (e *DomainError) ProblemTypeURI() string { return e.TypeURI }
func (e *DomainError) ProblemContext() any    { return e.Context }

// --- Sentinels ---

var (
	// Resource & identity
	ErrUserNotFound = &DomainError{
		Code:       "ErrUserNotFound",
		HTTPStatus: http.StatusNotFound,
		Title:      "Not Found",
		Message:    "User not found.",
		TypeURI:    "urn:problem:user/err-user-not-found",
	}

	ErrProfileNotFound = &DomainError{
		Code:       "ErrProfileNotFound",
		HTTPStatus: http.StatusNotFound,
		Title:      "Not Found",
		Message:    "User or profile not found.",
		TypeURI:    "urn:problem:user/err-profile-not-found",
	}

	ErrUnauthorized = &DomainError{
		Code:       "ErrUnauthorized",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "Authentication credentials were not provided.",
		TypeURI:    "urn:problem:user/err-unauthorized",
	}

	// Auth & credentials
	ErrInvalidCredentials = &DomainError{
		Code:       "ErrInvalidCredentials",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "invalid email or password",
		TypeURI:    "urn:problem:user/err-invalid-credentials",
	}

	ErrAccountInactive = &DomainError{
		Code:       "ErrAccountInactive",
		HTTPStatus: http.StatusForbidden,
		Title:      "Forbidden",
		Message:    "Account is not activated. Check your email for the activation code.",
		TypeURI:    "urn:problem:user/err-account-inactive",
	}

	ErrAlreadyActive = &DomainError{
		Code:       "ErrAlreadyActive",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "Account is already activated.",
		TypeURI:    "urn:problem:user/err-already-active",
	}

	// Registration
	ErrEmailExists = &DomainError{
		Code:       "ErrEmailExists",
		HTTPStatus: http.StatusConflict,
		Title:      "Conflict",
		Message:    "A user with this email already exists.",
		TypeURI:    "urn:problem:user/err-email-exists",
	}

	// Verification code issuance
	ErrInvalidPurpose = &DomainError{
		Code:       "ErrInvalidPurpose",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "purpose must be activation or password_reset",
		TypeURI:    "urn:problem:user/err-invalid-purpose",
	}

	ErrRateLimited = &DomainError{
		Code:       "ErrRateLimited",
		HTTPStatus: http.StatusTooManyRequests,
		Title:      "Too Many Requests",
		Message:    "Too many requests. Please try again later.",
		TypeURI:    "urn:problem:user/err-rate-limited",
	}

	ErrIssueInProgress = &DomainError{
		Code:       "ErrIssueInProgress",
		HTTPStatus: http.StatusTooManyRequests,
		Title:      "Too Many Requests",
		Message:    "A verification code is already being sent. Please wait a moment.",
		TypeURI:    "urn:problem:user/err-issue-in-progress",
	}

	ErrEmailDelivery = &DomainError{
		Code:       "ErrEmailDelivery",
		HTTPStatus: http.StatusBadGateway,
		Title:      "Bad Gateway",
		Message:    "We could not send the verification email. Please try again later.",
		TypeURI:    "urn:problem:user/err-email-delivery",
	}

	// Verification code checks
	ErrCodeNotFound = &DomainError{
		Code:       "ErrCodeNotFound",
		HTTPStatus: http.StatusNotFound,
		Title:      "Not Found",
		Message:    "No verification code found.",
		TypeURI:    "urn:problem:user/err-code-not-found",
	}

	ErrInvalidCode = &DomainError{
		Code:       "ErrInvalidCode",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "Invalid verification code.",
		TypeURI:    "urn:problem:user/err-invalid-code",
	}

	ErrCodeExpired = &DomainError{
		Code:       "ErrCodeExpired",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "Code expired. Please request a new code.",
		TypeURI:    "urn:problem:user/err-code-expired",
	}

	ErrCodeBlocked = &DomainError{
		Code:       "ErrCodeBlocked",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "Too many wrong attempts. Please request a new code.",
		TypeURI:    "urn:problem:user/err-code-blocked",
	}

	ErrCodeMismatch = &DomainError{
		Code:       "ErrCodeMismatch",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "Invalid code.",
		TypeURI:    "urn:problem:user/err-code-mismatch",
	}

	// Passwords
	ErrSamePassword = &DomainError{
		Code:       "ErrSamePassword",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "New password cannot be the same as the current password.",
		TypeURI:    "urn:problem:user/err-same-password",
	}

	ErrInvalidCurrentPassword = &DomainError{
		Code:       "ErrInvalidCurrentPassword",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "Current password is incorrect.",
		TypeURI:    "urn:problem:user/err-invalid-current-password",
	}

	// Profile
	ErrInvalidProfile = &DomainError{
		Code:       "ErrInvalidProfile",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "invalid profile data",
		TypeURI:    "urn:problem:user/err-invalid-profile",
	}

	// Generic
	ErrInternal = &DomainError{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "an unexpected internal error occurred",
		TypeURI:    "urn:problem:user/err-internal",
	}
)
