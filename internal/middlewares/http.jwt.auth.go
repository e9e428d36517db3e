package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	sharedjwt "github.com/joshuarp/liveconfig/internal/shared/jwt"
)

// ClaimsLocal is the fiber locals key carrying the verified claims.
const ClaimsLocal = "jwt_claims"

// NewHTTPJWTMiddleware guards a router group with bearer-token auth. Tokens
// are verified against the manager's current secret, so tokens issued before
// a salt rotation stop being accepted as soon as the config reloads.
func NewHTTPJWTMiddleware(tokenManager sharedjwt.TokenManager) fiber.Handler {
	return func(c fiber.Ctx) error {
		authorizationHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		parts := strings.SplitN(authorizationHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid authorization header",
			})
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing bearer token",
			})
		}

		claims, err := tokenManager.Verify(c.Context(), tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		c.Locals("subject", claims.Subject)
		c.Locals(ClaimsLocal, claims)
		return c.Next()
	}
}
