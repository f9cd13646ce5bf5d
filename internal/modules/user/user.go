package user

import (
	"time"
)

// User represents a user in the system.
// This is the core entity for the user module, used across the repository, service, and handler layers.
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	IsActive     bool      `db:"is_active"`
	IsSeller     bool      `db:"is_seller"`
	Points       int       `db:"points"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Profile holds the optional personal details of a user. It is created lazily.
type Profile struct {
	UserID      string     `db:"user_id"`
	FirstName   *string    `db:"first_name"`
	LastName    *string    `db:"last_name"`
	PhotoURL    *string    `db:"photo_url"`
	BirthDate   *time.Time `db:"birth_date"`
	Gender      *string    `db:"gender"`
	Country     *string    `db:"country"`
	PhoneNumber *string    `db:"phone_number"`
}

// IsEmpty reports whether any profile field is still missing.
func (p *Profile) IsEmpty() bool {
	return p.FirstName == nil || p.LastName == nil || p.PhotoURL == nil || p.BirthDate == nil ||
		p.Gender == nil || p.Country == nil || p.PhoneNumber == nil
}

// --- Verification Types ---

// VerificationPurpose defines the reason a 6-digit code is issued.
type VerificationPurpose string

const (
	PurposeActivation    VerificationPurpose = "activation"
	PurposePasswordReset VerificationPurpose = "password_reset"
)

// Valid reports whether p is a known purpose.
func (p VerificationPurpose) Valid() bool {
	return p == PurposeActivation || p == PurposePasswordReset
}

// VerificationCode represents a one-time 6-digit code issued to a user.
// Only the SHA-256 hash of the code is stored. A row with a nil ConsumedAt is the live code.
type VerificationCode struct {
	ID          int64               `db:"id"`
	UserID      string              `db:"user_id"`
	Purpose     VerificationPurpose `db:"purpose"`
	CodeHash    string              `db:"code_hash"`
	Attempts    int                 `db:"attempts"`
	MaxAttempts int                 `db:"max_attempts"`
	ExpiresAt   time.Time           `db:"expires_at"`
	ConsumedAt  *time.Time          `db:"consumed_at"`
	CreatedAt   time.Time           `db:"created_at"`
}

// Expired reports whether the code is no longer valid at now.
func (vc *VerificationCode) Expired(now time.Time) bool {
	return !now.Before(vc.ExpiresAt)
}

// Blocked reports whether the attempt budget is used up.
func (vc *VerificationCode) Blocked() bool {
	return vc.Attempts >= vc.MaxAttempts
}

// PasswordHistory is a previous password hash of a user.
type PasswordHistory struct {
	ID           int64     `db:"id"`
	UserID       string    `db:"user_id"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}
