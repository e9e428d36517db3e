package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	sharedidentity "github.com/joshuarp/liveconfig/internal/shared/identity"
	sharedjwt "github.com/joshuarp/liveconfig/internal/shared/jwt"
)

// SessionValidator validates an upstream identity session.
type SessionValidator interface {
	Validate(c fiber.Ctx) error
}

// AuthTokenHandler exchanges a valid identity session for a service token
// signed with the current rotating secret. Tokens outlive a salt rotation
// only until the next reload: verification always uses the live secret.
type AuthTokenHandler struct {
	tokens    sharedjwt.TokenManager
	validator SessionValidator
	logger    *slog.Logger
}

type authTokenRequest struct {
	Subject string `json:"subject"`
}

func NewAuthTokenHandler(tokens sharedjwt.TokenManager, validator SessionValidator, logger *slog.Logger) *AuthTokenHandler {
	return &AuthTokenHandler{tokens: tokens, validator: validator, logger: logger}
}

func (h *AuthTokenHandler) Register(router fiber.Router) {
	router.Post("/auth/token", h.Handle)
}

func (h *AuthTokenHandler) Handle(c fiber.Ctx) error {
	if h.validator != nil {
		if err := h.validator.Validate(c); err != nil {
			if errors.Is(err, sharedidentity.ErrSessionInvalid) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "invalid session",
				})
			}
			h.logger.Error("session validation failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "identity service unavailable",
			})
		}
	}

	var requestBody authTokenRequest
	if err := c.Bind().JSON(&requestBody); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if strings.TrimSpace(requestBody.Subject) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "subject is required",
		})
	}

	token, err := h.tokens.Sign(c.Context(), sharedjwt.Claims{Subject: requestBody.Subject})
	if err != nil {
		h.logger.Error("failed to sign token", "subject", requestBody.Subject, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"token": token,
	})
}
