package serverutils

import (
	"context"
	"strings"

	"chatrelay-be/internal/entity"

	"github.com/gofiber/fiber/v2"
)

const (
	LocalUserId   = "user_id"
	LocalSession  = "auth_session"
	LocalToken    = "access_token"
	bearerPrefix  = "Bearer "
	tokenQueryKey = "token"
)

// SessionResolver turns a bearer token into a live session.
type SessionResolver interface {
	CurrentSession(ctx context.Context, accessToken string) (*entity.AuthSession, error)
}

// BearerToken reads the token from the Authorization header, falling back to
// the "token" query parameter browsers use for WebSocket handshakes.
func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimSpace(authHeader[len(bearerPrefix):])
	}
	return ctx.Query(tokenQueryKey)
}

// NewJwtMiddleware rejects requests without a live session. Revoked tokens
// are rejected even while their signature is still valid.
func NewJwtMiddleware(resolver SessionResolver) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := BearerToken(ctx)
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		session, err := resolver.CurrentSession(ctx.UserContext(), tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		ctx.Locals(LocalUserId, session.UserId)
		ctx.Locals(LocalSession, session)
		ctx.Locals(LocalToken, tokenStr)
		return ctx.Next()
	}
}

// CurrentSession returns the session stored by the middleware.
func CurrentSession(ctx *fiber.Ctx) *entity.AuthSession {
	session, _ := ctx.Locals(LocalSession).(*entity.AuthSession)
	return session
}
