package handlers

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	sharedaudit "github.com/joshuarp/liveconfig/internal/shared/audit"
)

// AdminReloadsHandler lists the recent reload audit trail.
type AdminReloadsHandler struct {
	recorder sharedaudit.Recorder
	logger   *slog.Logger
}

func NewAdminReloadsHandler(recorder sharedaudit.Recorder, logger *slog.Logger) *AdminReloadsHandler {
	return &AdminReloadsHandler{recorder: recorder, logger: logger}
}

func (h *AdminReloadsHandler) Register(router fiber.Router) {
	router.Get("/reloads", h.Handle)
}

func (h *AdminReloadsHandler) Handle(c fiber.Ctx) error {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be a positive integer",
			})
		}
		limit = parsed
	}

	entries, err := h.recorder.Recent(c.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list reload audit entries", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"reloads": entries,
	})
}
