package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"

	sharedconfig "github.com/joshuarp/liveconfig/internal/shared/config"
	sharedhash "github.com/joshuarp/liveconfig/internal/shared/hash"
	"github.com/joshuarp/liveconfig/internal/shared/hotload"
	sharedjwt "github.com/joshuarp/liveconfig/internal/shared/jwt"
	sharedlog "github.com/joshuarp/liveconfig/internal/shared/log"
	shareduid "github.com/joshuarp/liveconfig/internal/shared/uid"
)

// ConfigPathEnvVar names the environment variable consulted for the config
// file path at startup.
const ConfigPathEnvVar = "LIVECONFIG_CONFIG"

type fallbackPathIn struct {
	fx.In
	FallbackPath string `name:"config_fallback_path"`
}

// New assembles the application. fallbackPath is used when ConfigPathEnvVar
// is unset.
func New(fallbackPath string, modules ...fx.Option) *fx.App {
	opts := []fx.Option{
		fx.Supply(
			fx.Annotate(
				fallbackPath,
				fx.ResultTags(`name:"config_fallback_path"`),
			),
		),
		CoreModule(),
	}
	opts = append(opts, modules...)
	opts = append(opts, fx.Invoke(registerLifecycle))
	return fx.New(opts...)
}

func CoreModule() fx.Option {
	return fx.Module("core",
		fx.Provide(
			provideConfigSlot,
			provideLogger,
			provideChangeSignal,
			provideWatcher,
			provideUIDGenerator,
			provideAuditPostgresSQLX,
			provideAuditRecorder,
			provideHasher,
			provideTokenManager,
			provideFiberApp,
			provideRouterGroups,
		),
	)
}

// provideConfigSlot performs the initial bounded-retry load and wraps the
// result in the shared slot. A failed initial load aborts startup: the
// process must not come up without a valid configuration.
func provideConfigSlot(in fallbackPathIn) (*hotload.Slot[*sharedconfig.Config], error) {
	// The real logger needs the loaded config; bootstrap with a default
	// JSON logger so load failures are still structured.
	bootLogger := sharedlog.NewJSONLogger("info")

	cfg := sharedconfig.New()
	if err := hotload.Load(context.Background(), cfg, hotload.LoadOptions{
		EnvVar:       ConfigPathEnvVar,
		FallbackPath: in.FallbackPath,
		Logger:       bootLogger,
	}); err != nil {
		return nil, err
	}

	return hotload.NewSlot(cfg), nil
}

func provideLogger(slot *hotload.Slot[*sharedconfig.Config]) *slog.Logger {
	var level string
	slot.View(func(cfg *sharedconfig.Config) { level = cfg.Logging.Level })
	return sharedlog.NewJSONLogger(level)
}

func provideChangeSignal() *hotload.Signal {
	return hotload.NewSignal()
}

func provideWatcher(
	slot *hotload.Slot[*sharedconfig.Config],
	signal *hotload.Signal,
	logger *slog.Logger,
) *hotload.Watcher[*sharedconfig.Config] {
	return hotload.NewWatcher(slot, hotload.WatcherOptions{
		Signal: signal,
		Logger: logger,
	})
}

func provideUIDGenerator(slot *hotload.Slot[*sharedconfig.Config]) (shareduid.Generator, error) {
	var audit sharedconfig.AuditConfig
	slot.View(func(cfg *sharedconfig.Config) { audit = cfg.Audit })

	strategy := shareduid.Strategy(audit.IDStrategy)
	if strategy == "" {
		strategy = shareduid.StrategyUUIDv7
	}
	return shareduid.New(shareduid.Options{Strategy: strategy, NodeID: audit.NodeID})
}

func provideHasher(slot *hotload.Slot[*sharedconfig.Config]) (sharedhash.Hasher, error) {
	return sharedhash.New(func() sharedhash.Params {
		var params sharedhash.Params
		slot.View(func(cfg *sharedconfig.Config) {
			params = sharedhash.Params{
				Salt:      []byte(cfg.Salt),
				KeyLength: uint32(cfg.SaltLength),
			}
		})
		return params
	})
}

func provideTokenManager(slot *hotload.Slot[*sharedconfig.Config]) (sharedjwt.TokenManager, error) {
	var jwtCfg sharedconfig.JWTConfig
	slot.View(func(cfg *sharedconfig.Config) { jwtCfg = cfg.Security.JWT })

	ttl := jwtCfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return sharedjwt.NewHMAC(sharedjwt.Options{
		Secret: func() []byte {
			var salt string
			slot.View(func(cfg *sharedconfig.Config) { salt = cfg.Salt })
			return deriveSigningSecret(salt)
		},
		TTL:    ttl,
		Issuer: jwtCfg.Issuer,
	})
}

// deriveSigningSecret pads the configured salt up to the HMAC minimum so a
// short development salt still yields a usable key.
func deriveSigningSecret(salt string) []byte {
	const minLength = 32
	secret := []byte(salt)
	for len(secret) < minLength {
		secret = append(secret, 'x')
	}
	return secret
}

func provideFiberApp(slot *hotload.Slot[*sharedconfig.Config]) *fiber.App {
	var server sharedconfig.ServerConfig
	slot.View(func(cfg *sharedconfig.Config) { server = cfg.Server })

	readTimeout := server.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}

	writeTimeout := server.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	return fiber.New(fiber.Config{
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})
}
