package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/delordemm1/realestate-api/internal/database"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

const (
	sessionsTable = "user_active_sessions"
	authPrefix    = "auth:"
)

type sessionRow struct {
	UserID       string    `db:"user_id"`
	CreatedAt    time.Time `db:"created_at"`
	LastActiveAt time.Time `db:"last_active_at"`
}

type postgresProvider struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
	cfg  Config
	now  func() time.Time
}

func newPostgresProvider(db database.DBTX, cfg Config) *postgresProvider {
	if cfg.SlidingTTL == 0 {
		cfg.SlidingTTL = 7 * 24 * time.Hour
	}
	if cfg.AbsoluteTTL == 0 {
		cfg.AbsoluteTTL = 30 * 24 * time.Hour
	}
	return &postgresProvider{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		cfg:  cfg,
		now:  time.Now,
	}
}

func (p *postgresProvider) CreateAuthSession(ctx context.Context, userID string, userAgent string, ip string) (string, error) {
	raw, err := randomOpaque(32)
	if err != nil {
		return "", err
	}
	sessionID := authPrefix + raw

	rowID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate session row id: %w", err)
	}

	now := p.now()
	sql, args, err := p.psql.Insert(sessionsTable).
		Columns("id", "user_id", "session_token", "user_agent", "ip_address", "last_active_at", "created_at").
		Values(rowID.String(), userID, sessionID, nullable(userAgent), nullable(ip), now, now).
		ToSql()
	if err != nil {
		return "", err
	}
	if _, err := p.db.Exec(ctx, sql, args...); err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return sessionID, nil
}

// GetAndExtend deletes sessions past either TTL and otherwise bumps last_active_at.
func (p *postgresProvider) GetAndExtend(ctx context.Context, sessionID string) (string, error) {
	if !strings.HasPrefix(sessionID, authPrefix) {
		return "", ErrNotFound
	}

	sql, args, err := p.psql.Select("user_id", "created_at", "last_active_at").
		From(sessionsTable).
		Where(squirrel.Eq{"session_token": sessionID}).
		ToSql()
	if err != nil {
		return "", err
	}
	var row sessionRow
	if err := pgxscan.Get(ctx, p.db, &row, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("load session: %w", err)
	}

	now := p.now()
	if expired(now, row.CreatedAt, row.LastActiveAt, p.cfg) {
		_ = p.Delete(ctx, sessionID)
		return "", ErrExpired
	}

	sql, args, err = p.psql.Update(sessionsTable).
		Set("last_active_at", now).
		Where(squirrel.Eq{"session_token": sessionID}).
		ToSql()
	if err != nil {
		return "", err
	}
	// A failed bump only shortens the idle window.
	_, _ = p.db.Exec(ctx, sql, args...)
	return row.UserID, nil
}

func (p *postgresProvider) Delete(ctx context.Context, sessionID string) error {
	return p.deleteWhere(ctx, squirrel.Eq{"session_token": sessionID})
}

func (p *postgresProvider) DeleteAllForUser(ctx context.Context, userID string) error {
	return p.deleteWhere(ctx, squirrel.Eq{"user_id": userID})
}

func (p *postgresProvider) deleteWhere(ctx context.Context, where squirrel.Eq) error {
	sql, args, err := p.psql.Delete(sessionsTable).Where(where).ToSql()
	if err != nil {
		return err
	}
	if _, err := p.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

// expired reports whether a session is past its absolute or sliding TTL.
func expired(now, createdAt, lastActiveAt time.Time, cfg Config) bool {
	return now.Sub(createdAt) > cfg.AbsoluteTTL || now.Sub(lastActiveAt) > cfg.SlidingTTL
}

// randomOpaque returns n random bytes, base64url encoded without padding.
func randomOpaque(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand read: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
