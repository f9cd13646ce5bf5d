package user

import (
	"context"

	"github.com/Masterminds/squirrel"
)

// DeleteUserSessions removes every active session of the user, revoking all tokens minted for them.
func (r *repository) DeleteUserSessions(ctx context.Context, userID string) error {
	query, args, err := r.psql.Delete("user_active_sessions").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}
