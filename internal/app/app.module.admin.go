package app

import (
	"go.uber.org/fx"

	"github.com/joshuarp/liveconfig/internal/handlers"
)

// AdminModule wires the operator-facing surface: the redacted config
// snapshot, the reload audit trail, the salt-derived digest endpoint, and
// the session-for-token exchange.
func AdminModule() fx.Option {
	return fx.Module("admin",
		fx.Provide(
			newIdentitySessionValidator,
			handlers.NewAdminConfigHandler,
			handlers.NewAdminReloadsHandler,
			handlers.NewAdminDigestHandler,
			handlers.NewAuthTokenHandler,
		),
		fx.Invoke(registerAdminRoutes),
		fx.Invoke(registerAuthRoutes),
	)
}
