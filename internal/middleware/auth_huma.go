package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/delordemm1/realestate-api/internal/contextx"
	apphttpx "github.com/delordemm1/realestate-api/internal/httpx"
	"github.com/delordemm1/realestate-api/internal/token"
)

// TokenParser validates an access token and returns its claims.
type TokenParser interface {
	Parse(tokenString string) (*token.Claims, error)
}

// SessionValidator resolves a live session to its owner, sliding its TTL.
type SessionValidator interface {
	GetAndExtend(ctx context.Context, sessionID string) (userID string, err error)
}

// Authenticate is a router-agnostic Huma middleware that validates the bearer JWT,
// checks that the session it references is still alive, and injects the user and
// session IDs into the request context. On failure it writes an RFC7807
// problem+json response with code ErrUnauthorized.
func Authenticate(tokens TokenParser, sessions SessionValidator, logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		writeUnauthorized := func(detail string) {
			apphttpx.Write(ctx, apphttpx.UnauthorizedProblem(ctx.Context(), detail))
		}

		// 1. Authorization header.
		authHeader := ctx.Header("Authorization")
		if authHeader == "" {
			writeUnauthorized("missing authorization header")
			return
		}

		// 2. Bearer token.
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			writeUnauthorized("invalid authorization header format")
			return
		}

		// 3. Parse and validate the token.
		claims, err := tokens.Parse(tokenString)
		if err != nil {
			logger.Warn("invalid jwt token", "error", err)
			writeUnauthorized("invalid or expired token")
			return
		}

		// 4. The session must still exist and belong to the token subject.
		userID, err := sessions.GetAndExtend(ctx.Context(), claims.SessionID)
		if err != nil {
			logger.Info("rejected token with dead session", "error", err)
			writeUnauthorized("session expired or revoked")
			return
		}
		if userID != claims.Subject {
			logger.Error("session owner does not match token subject", "subject", claims.Subject)
			writeUnauthorized("invalid token claims")
			return
		}

		// 5. Inject identity into context for downstream handlers.
		ctx = huma.WithValue(ctx, contextx.UserIDKey, userID)
		ctx = huma.WithValue(ctx, contextx.SessionIDKey, claims.SessionID)
		next(ctx)
	}
}
