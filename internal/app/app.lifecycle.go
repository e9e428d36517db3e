package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v3"
	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"

	sharedaudit "github.com/joshuarp/liveconfig/internal/shared/audit"
	sharedconfig "github.com/joshuarp/liveconfig/internal/shared/config"
	"github.com/joshuarp/liveconfig/internal/shared/hotload"
	shareduid "github.com/joshuarp/liveconfig/internal/shared/uid"
)

type lifecycleIn struct {
	fx.In

	App      *fiber.App
	Slot     *hotload.Slot[*sharedconfig.Config]
	Watcher  *hotload.Watcher[*sharedconfig.Config]
	Signal   *hotload.Signal
	Recorder sharedaudit.Recorder
	UID      shareduid.Generator
	Logger   *slog.Logger
	AuditDB  *sqlx.DB `optional:"true"`
}

func registerLifecycle(lifecycle fx.Lifecycle, in lifecycleIn) {
	var port int
	in.Slot.View(func(cfg *sharedconfig.Config) { port = cfg.Server.Port })
	if port == 0 {
		port = 8080
	}
	address := fmt.Sprintf(":%d", port)

	var (
		serveErrCh   chan error
		watchCancel  context.CancelFunc
		watchDoneCh  chan struct{}
		listenDoneCh chan struct{}
	)

	lifecycle.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			listener, err := net.Listen("tcp", address)
			if err != nil {
				return fmt.Errorf("app: failed to bind server address %s: %w", address, err)
			}

			serveErrCh = make(chan error, 1)
			go func() {
				err := in.App.Listener(listener)
				if err != nil && !errors.Is(err, net.ErrClosed) {
					in.Logger.Error("fiber server stopped unexpectedly", "error", err)
				}
				serveErrCh <- err
			}()

			watchCtx, cancel := context.WithCancel(context.Background())
			watchCancel = cancel

			watchDoneCh = make(chan struct{})
			go func() {
				defer close(watchDoneCh)
				if err := in.Watcher.Run(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
					in.Logger.Error("config watcher stopped", "error", err)
				}
			}()

			auditListener := newAuditListener(in.Recorder, in.UID, in.Slot, in.Logger)
			pulses := in.Signal.Subscribe()
			listenDoneCh = make(chan struct{})
			go func() {
				defer close(listenDoneCh)
				auditListener.Listen(watchCtx, pulses)
			}()

			in.Logger.Info("fiber server started", "address", address)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			var shutdownErrors []error

			if watchCancel != nil {
				watchCancel()
			}
			in.Signal.Close()

			if err := in.App.ShutdownWithContext(ctx); err != nil {
				shutdownErrors = append(shutdownErrors, err)
			}

			if serveErrCh != nil {
				select {
				case err := <-serveErrCh:
					if err != nil && !errors.Is(err, net.ErrClosed) {
						shutdownErrors = append(shutdownErrors, err)
					}
				case <-ctx.Done():
					shutdownErrors = append(shutdownErrors, ctx.Err())
				}
			}

			for _, done := range []chan struct{}{watchDoneCh, listenDoneCh} {
				if done == nil {
					continue
				}
				select {
				case <-done:
				case <-ctx.Done():
					shutdownErrors = append(shutdownErrors, ctx.Err())
				}
			}

			if in.AuditDB != nil {
				if err := in.AuditDB.Close(); err != nil {
					shutdownErrors = append(shutdownErrors, err)
				}
			}

			in.Slot.View(func(cfg *sharedconfig.Config) { cfg.Close() })

			if len(shutdownErrors) > 0 {
				return errors.Join(shutdownErrors...)
			}

			in.Logger.Info("shutdown completed")
			return nil
		},
	})
}
