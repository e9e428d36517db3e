package handlers

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	sharedhash "github.com/joshuarp/liveconfig/internal/shared/hash"
)

// AdminDigestHandler derives an argon2 digest of a value with the live salt.
// Operators use it to mint hashed credentials; because the hasher reads its
// parameters per call, the digest always reflects the current salt.
type AdminDigestHandler struct {
	hasher sharedhash.Hasher
	logger *slog.Logger
}

type adminDigestRequest struct {
	Value string `json:"value"`
}

func NewAdminDigestHandler(hasher sharedhash.Hasher, logger *slog.Logger) *AdminDigestHandler {
	return &AdminDigestHandler{hasher: hasher, logger: logger}
}

func (h *AdminDigestHandler) Register(router fiber.Router) {
	router.Post("/digest", h.Handle)
}

func (h *AdminDigestHandler) Handle(c fiber.Ctx) error {
	var requestBody adminDigestRequest
	if err := c.Bind().JSON(&requestBody); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if strings.TrimSpace(requestBody.Value) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "value is required",
		})
	}

	digest, err := h.hasher.Hash(c.Context(), requestBody.Value)
	if err != nil {
		h.logger.Error("failed to derive digest", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"digest": digest,
	})
}
