package user

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

// --- Verification Codes (6-digit OTP) ---

var verificationColumns = []string{"id", "user_id", "purpose", "code_hash", "attempts", "max_attempts", "expires_at", "consumed_at", "created_at"}

// CountVerificationCodesSince counts live and consumed codes created at or after since.
func (r *repository) CountVerificationCodesSince(ctx context.Context, userID string, purpose VerificationPurpose, since time.Time) (int, error) {
	sql, args, err := r.psql.Select("COUNT(*)").
		From("verification_codes").
		Where(squirrel.Eq{"user_id": userID, "purpose": string(purpose)}).
		Where(squirrel.GtOrEq{"created_at": since}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// PurgeConsumedVerificationCodes deletes consumed codes created before the given instant.
func (r *repository) PurgeConsumedVerificationCodes(ctx context.Context, userID string, purpose VerificationPurpose, before time.Time) error {
	sql, args, err := r.psql.Delete("verification_codes").
		Where(squirrel.Eq{"user_id": userID, "purpose": string(purpose)}).
		Where(squirrel.NotEq{"consumed_at": nil}).
		Where(squirrel.Lt{"created_at": before}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// SupersedeVerificationCodes marks every live code of the pair as consumed.
func (r *repository) SupersedeVerificationCodes(ctx context.Context, userID string, purpose VerificationPurpose, at time.Time) error {
	sql, args, err := r.psql.Update("verification_codes").
		Set("consumed_at", at).
		Where(squirrel.Eq{"user_id": userID, "purpose": string(purpose), "consumed_at": nil}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *repository) CreateVerificationCode(ctx context.Context, vc *VerificationCode) error {
	sql, args, err := r.psql.Insert("verification_codes").
		Columns("user_id", "purpose", "code_hash", "attempts", "max_attempts", "expires_at", "created_at").
		Values(vc.UserID, string(vc.Purpose), vc.CodeHash, vc.Attempts, vc.MaxAttempts, vc.ExpiresAt, vc.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, sql, args...).Scan(&vc.ID)
}

// GetLatestLiveVerificationCode locks and returns the live code of the pair.
func (r *repository) GetLatestLiveVerificationCode(ctx context.Context, userID string, purpose VerificationPurpose) (*VerificationCode, error) {
	return r.findLiveCode(ctx, squirrel.Eq{"user_id": userID, "purpose": string(purpose)})
}

// GetLiveVerificationCodeByHash locks and returns the live code of the pair only if its hash matches.
func (r *repository) GetLiveVerificationCodeByHash(ctx context.Context, userID string, purpose VerificationPurpose, codeHash string) (*VerificationCode, error) {
	return r.findLiveCode(ctx, squirrel.Eq{"user_id": userID, "purpose": string(purpose), "code_hash": codeHash})
}

func (r *repository) findLiveCode(ctx context.Context, condition squirrel.Sqlizer) (*VerificationCode, error) {
	sql, args, err := r.psql.Select(verificationColumns...).
		From("verification_codes").
		Where(condition).
		Where(squirrel.Eq{"consumed_at": nil}).
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, err
	}
	var vc VerificationCode
	if err := pgxscan.Get(ctx, r.db, &vc, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCodeNotFound.WithCause(err)
		}
		return nil, err
	}
	return &vc, nil
}

func (r *repository) IncrementVerificationAttempt(ctx context.Context, id int64) (int, int, error) {
	sql := `
        UPDATE verification_codes
        SET attempts = attempts + 1
        WHERE id = $1 AND consumed_at IS NULL AND attempts < max_attempts
        RETURNING attempts, max_attempts
    `
	var attempts int
	var maxAttempts int
	if err := r.db.QueryRow(ctx, sql, id).Scan(&attempts, &maxAttempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrCodeNotFound.WithCause(err)
		}
		return 0, 0, err
	}
	return attempts, maxAttempts, nil
}

func (r *repository) ConsumeVerificationCode(ctx context.Context, id int64, at time.Time) error {
	sql, args, err := r.psql.Update("verification_codes").
		Set("consumed_at", at).
		Where(squirrel.Eq{"id": id, "consumed_at": nil}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

// --- Password History ---

func (r *repository) AppendPasswordHistory(ctx context.Context, userID string, passwordHash string, at time.Time) error {
	sql, args, err := r.psql.Insert("password_histories").
		Columns("user_id", "password_hash", "created_at").
		Values(userID, passwordHash, at).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// TrimPasswordHistory keeps only the newest keep entries of the user.
func (r *repository) TrimPasswordHistory(ctx context.Context, userID string, keep int) error {
	// The subquery keeps "?" placeholders; the outer builder renumbers them.
	newest := squirrel.Select("id").
		From("password_histories").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(keep))
	keepSQL, keepArgs, err := newest.ToSql()
	if err != nil {
		return err
	}

	sql, args, err := r.psql.Delete("password_histories").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.Expr("id NOT IN ("+keepSQL+")", keepArgs...)).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// ListPasswordHistory returns up to limit entries, newest first.
func (r *repository) ListPasswordHistory(ctx context.Context, userID string, limit int) ([]PasswordHistory, error) {
	sql, args, err := r.psql.Select("id", "user_id", "password_hash", "created_at").
		From("password_histories").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	var out []PasswordHistory
	if err := pgxscan.Select(ctx, r.db, &out, sql, args...); err != nil {
		return nil, err
	}
	return out, nil
}
