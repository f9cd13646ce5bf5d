package user

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var userColumns = []string{"id", "email", "password_hash", "is_active", "is_seller", "points", "created_at", "updated_at"}

var profileColumns = []string{"user_id", "first_name", "last_name", "photo_url", "birth_date", "gender", "country", "phone_number"}

// Create inserts a new user record into the database.
// It returns ErrEmailExists when the email is already taken.
func (r *repository) Create(ctx context.Context, user *User) error {
	query, args, err := r.psql.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Email, user.PasswordHash, user.IsActive, user.IsSeller, user.Points, user.CreatedAt, user.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}

	if _, err = r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrEmailExists.WithCause(err)
		}
		return err
	}
	return nil
}

// FindByEmail retrieves a user by their email address.
// It returns ErrUserNotFound if no user is found.
func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, squirrel.Eq{"email": email})
}

// FindByID retrieves a user by their unique ID.
// It returns ErrUserNotFound if no user is found.
func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

// Update persists the mutable flags of a user.
func (r *repository) Update(ctx context.Context, user *User) error {
	query, args, err := r.psql.Update("users").
		Set("is_active", user.IsActive).
		Set("is_seller", user.IsSeller).
		Set("points", user.Points).
		Set("updated_at", user.UpdatedAt).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword sets a new password hash for a user.
func (r *repository) UpdatePassword(ctx context.Context, userID string, newPasswordHash string, at time.Time) error {
	sql, args, err := r.psql.Update("users").
		Set("password_hash", newPasswordHash).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// findOne is a helper method to find a single user by a given condition.
func (r *repository) findOne(ctx context.Context, condition squirrel.Sqlizer) (*User, error) {
	sql, args, err := r.psql.Select(userColumns...).From("users").Where(condition).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}

	var user User
	if err := pgxscan.Get(ctx, r.db, &user, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound.WithCause(err)
		}
		return nil, err
	}
	return &user, nil
}

// --- Profiles ---

// GetOrCreateProfile returns the user's profile, inserting an empty one first if needed.
func (r *repository) GetOrCreateProfile(ctx context.Context, userID string) (*Profile, error) {
	sql, args, err := r.psql.Insert("profiles").
		Columns("user_id").
		Values(userID).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}
	return r.FindProfile(ctx, userID)
}

// FindProfile returns ErrProfileNotFound when the user has no profile yet.
func (r *repository) FindProfile(ctx context.Context, userID string) (*Profile, error) {
	sql, args, err := r.psql.Select(profileColumns...).
		From("profiles").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := pgxscan.Get(ctx, r.db, &p, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound.WithCause(err)
		}
		return nil, err
	}
	return &p, nil
}

// UpdateProfile overwrites every profile field, NULLs included.
func (r *repository) UpdateProfile(ctx context.Context, p *Profile) error {
	sql, args, err := r.psql.Update("profiles").
		SetMap(map[string]any{
			"first_name":   p.FirstName,
			"last_name":    p.LastName,
			"photo_url":    p.PhotoURL,
			"birth_date":   p.BirthDate,
			"gender":       p.Gender,
			"country":      p.Country,
			"phone_number": p.PhoneNumber,
		}).
		Where(squirrel.Eq{"user_id": p.UserID}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
