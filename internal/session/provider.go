package session

import (
	"context"
	"time"

	"github.com/delordemm1/realestate-api/internal/database"
)

// Config controls session TTLs.
type Config struct {
	// SlidingTTL is the idle timeout. Each valid access extends last_active_at by this duration.
	// Default: 7 days.
	SlidingTTL time.Duration

	// AbsoluteTTL is the maximum lifetime from creation. Default: 30 days.
	AbsoluteTTL time.Duration
}

// Provider defines operations for managing opaque sessions.
//
// Session IDs are opaque, random, and prefixed with a type, e.g. "auth:".
// Access tokens handed to clients reference a session ID, so deleting the
// session revokes every token minted for it.
type Provider interface {
	// CreateAuthSession creates a new auth session for the given user and returns the session ID.
	// Optional userAgent and ip are recorded for auditing.
	CreateAuthSession(ctx context.Context, userID string, userAgent string, ip string) (sessionID string, err error)

	// GetAndExtend validates the session ID (including TTL checks) and extends the sliding TTL.
	// It returns the associated user ID on success.
	GetAndExtend(ctx context.Context, sessionID string) (userID string, err error)

	// Delete deletes a session by its session ID. It is idempotent.
	Delete(ctx context.Context, sessionID string) error

	// DeleteAllForUser removes every session of the user ("log out everywhere").
	DeleteAllForUser(ctx context.Context, userID string) error
}

// NewPostgresProvider returns a Postgres-backed Provider implementation.
func NewPostgresProvider(db database.DBTX, cfg Config) Provider {
	return newPostgresProvider(db, cfg)
}
