package middlewares

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

func NewHTTPRequestIDMiddleware() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:    RequestIDHeader,
		Generator: uuid.NewString,
	})
}

func RequestIDFromContext(c fiber.Ctx) string {
	id := requestid.FromContext(c)
	if id != "" {
		return id
	}

	return c.Get(RequestIDHeader)
}
