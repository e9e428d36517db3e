package app

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"

	"github.com/joshuarp/liveconfig/internal/handlers"
	"github.com/joshuarp/liveconfig/internal/middlewares"
	sharedconfig "github.com/joshuarp/liveconfig/internal/shared/config"
	"github.com/joshuarp/liveconfig/internal/shared/hotload"
	sharedidentity "github.com/joshuarp/liveconfig/internal/shared/identity"
	sharedjwt "github.com/joshuarp/liveconfig/internal/shared/jwt"
)

type routerGroupsOut struct {
	fx.Out
	Public fiber.Router `name:"api_public"`
	Admin  fiber.Router `name:"api_admin"`
}

func provideRouterGroups(
	app *fiber.App,
	logger *slog.Logger,
	tokenManager sharedjwt.TokenManager,
) routerGroupsOut {
	app.Use(middlewares.NewHTTPRecoveryMiddleware())
	app.Use(middlewares.NewHTTPRequestIDMiddleware())
	app.Use(middlewares.NewHTTPRequestResponseLogMiddleware(logger))

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	public := app.Group("")
	admin := app.Group("/admin", middlewares.NewHTTPJWTMiddleware(tokenManager))

	return routerGroupsOut{
		Public: public,
		Admin:  admin,
	}
}

type authRoutesIn struct {
	fx.In
	Public  fiber.Router `name:"api_public"`
	Handler *handlers.AuthTokenHandler
}

func registerAuthRoutes(in authRoutesIn) {
	in.Handler.Register(in.Public)
}

type adminRoutesIn struct {
	fx.In
	Admin   fiber.Router `name:"api_admin"`
	Config  *handlers.AdminConfigHandler
	Reloads *handlers.AdminReloadsHandler
	Digest  *handlers.AdminDigestHandler
}

func registerAdminRoutes(in adminRoutesIn) {
	in.Config.Register(in.Admin)
	in.Reloads.Register(in.Admin)
	in.Digest.Register(in.Admin)
}

// identitySessionValidator checks the request's session cookie against the
// identity client currently bound in the live configuration. With no identity
// service configured every session is accepted, matching a development setup
// with no Kratos in front.
type identitySessionValidator struct {
	slot *hotload.Slot[*sharedconfig.Config]
}

var _ handlers.SessionValidator = (*identitySessionValidator)(nil)

func newIdentitySessionValidator(slot *hotload.Slot[*sharedconfig.Config]) handlers.SessionValidator {
	return &identitySessionValidator{slot: slot}
}

func (v *identitySessionValidator) Validate(c fiber.Ctx) error {
	var client *sharedidentity.Client
	v.slot.View(func(cfg *sharedconfig.Config) { client = cfg.Identity.Client })

	if client == nil {
		return nil
	}
	return client.ValidateSession(c.Context(), c.Cookies(sharedidentity.SessionCookie))
}
