package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"

	sharedconfig "github.com/joshuarp/liveconfig/internal/shared/config"
	"github.com/joshuarp/liveconfig/internal/shared/hotload"
)

// AdminConfigHandler exposes a redacted snapshot of the live configuration.
// Secrets (salt, passwords, injected credentials) never leave the process;
// the endpoint exists so operators can verify which settings are in effect
// after editing the file.
type AdminConfigHandler struct {
	slot   *hotload.Slot[*sharedconfig.Config]
	logger *slog.Logger
}

func NewAdminConfigHandler(slot *hotload.Slot[*sharedconfig.Config], logger *slog.Logger) *AdminConfigHandler {
	return &AdminConfigHandler{slot: slot, logger: logger}
}

func (h *AdminConfigHandler) Register(router fiber.Router) {
	router.Get("/config", h.Handle)
}

func (h *AdminConfigHandler) Handle(c fiber.Ctx) error {
	var snapshot fiber.Map
	h.slot.View(func(cfg *sharedconfig.Config) {
		snapshot = fiber.Map{
			"path":        cfg.Path(),
			"reloads":     h.slot.Reloads(),
			"salt_length": cfg.SaltLength,
			"logging": fiber.Map{
				"level": cfg.Logging.Level,
			},
			"redis": fiber.Map{
				"addr":    cfg.Redis.Addr,
				"enabled": cfg.Redis.Client != nil,
			},
			"objectstore": fiber.Map{
				"endpoint": cfg.ObjectStore.Endpoint,
				"bucket":   cfg.ObjectStore.Bucket,
				"enabled":  cfg.ObjectStore.Client != nil,
			},
			"identity": fiber.Map{
				"addr":    cfg.Identity.Addr,
				"enabled": cfg.Identity.Client != nil,
			},
		}
	})

	return c.Status(fiber.StatusOK).JSON(snapshot)
}
