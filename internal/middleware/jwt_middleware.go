package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"booknest/internal/apperr"
	"booknest/internal/logging"
	"booknest/internal/services"
)

// UserKey is the Fiber locals key holding the *services.Identity.
const UserKey = "user"

// TokenCookie is the cookie name checked when no header carries a token.
const TokenCookie = "token"

// AuthRequired is a Fiber middleware to check for a valid JWT token.
// The token is read from the x-auth-token header, then the token cookie,
// then an "Authorization: Bearer" header.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := extractToken(c)
		if tokenString == "" {
			return apperr.Unauthenticated(services.MsgNoToken)
		}

		identity, err := authService.ValidateToken(tokenString)
		if err != nil {
			logging.Debug().Err(err).Str("path", c.Path()).Msg("JWT validation failed")
			return err
		}

		c.Locals(UserKey, identity)
		return c.Next()
	}
}

func extractToken(c *fiber.Ctx) string {
	if t := strings.TrimSpace(c.Get("x-auth-token")); t != "" {
		return t
	}
	if t := strings.TrimSpace(c.Cookies(TokenCookie)); t != "" {
		return t
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// CurrentUser returns the identity stored by AuthRequired.
func CurrentUser(c *fiber.Ctx) (*services.Identity, error) {
	identity, ok := c.Locals(UserKey).(*services.Identity)
	if !ok || identity == nil || identity.ID == "" {
		return nil, apperr.Unauthenticated(services.MsgNoToken)
	}
	return identity, nil
}
