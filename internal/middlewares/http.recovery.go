package middlewares

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// NewHTTPRecoveryMiddleware converts handler panics into 500 responses so a
// misbehaving admin endpoint cannot take the reload pipeline down with it.
func NewHTTPRecoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
	})
}
