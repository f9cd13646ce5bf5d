package user

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/delordemm1/realestate-api/internal/database"
	"github.com/jackc/pgx/v5"
)

// Repository defines the interface for database operations for the user module.
// This abstraction allows the service layer to be independent of the database implementation.
type Repository interface {
	// WithTx runs fn against a repository bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	// Users
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, userID string, newPasswordHash string, at time.Time) error

	// Profiles
	GetOrCreateProfile(ctx context.Context, userID string) (*Profile, error)
	FindProfile(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, profile *Profile) error

	// Verification codes
	CountVerificationCodesSince(ctx context.Context, userID string, purpose VerificationPurpose, since time.Time) (int, error)
	PurgeConsumedVerificationCodes(ctx context.Context, userID string, purpose VerificationPurpose, before time.Time) error
	SupersedeVerificationCodes(ctx context.Context, userID string, purpose VerificationPurpose, at time.Time) error
	CreateVerificationCode(ctx context.Context, vc *VerificationCode) error
	GetLatestLiveVerificationCode(ctx context.Context, userID string, purpose VerificationPurpose) (*VerificationCode, error)
	GetLiveVerificationCodeByHash(ctx context.Context, userID string, purpose VerificationPurpose, codeHash string) (*VerificationCode, error)
	IncrementVerificationAttempt(ctx context.Context, id int64) (attempts int, maxAttempts int, err error)
	ConsumeVerificationCode(ctx context.Context, id int64, at time.Time) error

	// Password history
	AppendPasswordHistory(ctx context.Context, userID string, passwordHash string, at time.Time) error
	TrimPasswordHistory(ctx context.Context, userID string, keep int) error
	ListPasswordHistory(ctx context.Context, userID string, limit int) ([]PasswordHistory, error)

	// Sessions
	DeleteUserSessions(ctx context.Context, userID string) error
}

// repository implements the Repository interface using pgx and squirrel.
type repository struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
}

// NewRepository creates a new user repository with the given database connection.
func NewRepository(db database.DBTX) Repository {
	return &repository{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *repository) WithTx(ctx context.Context, fn func(repo Repository) error) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&repository{db: tx, psql: r.psql})
	})
}
