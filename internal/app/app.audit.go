package app

import (
	"log/slog"

	"github.com/jmoiron/sqlx"

	sharedaudit "github.com/joshuarp/liveconfig/internal/shared/audit"
	sharedconfig "github.com/joshuarp/liveconfig/internal/shared/config"
	"github.com/joshuarp/liveconfig/internal/shared/hotload"
	shareduid "github.com/joshuarp/liveconfig/internal/shared/uid"
)

func provideAuditRecorder(db *sqlx.DB, logger *slog.Logger) (sharedaudit.Recorder, error) {
	if db == nil {
		logger.Warn("audit database is not configured, keeping reload trail in memory")
		return sharedaudit.NewMemoryRecorder(), nil
	}
	return sharedaudit.NewSQLRecorder(db)
}

func newAuditListener(
	recorder sharedaudit.Recorder,
	gen shareduid.Generator,
	slot *hotload.Slot[*sharedconfig.Config],
	logger *slog.Logger,
) *sharedaudit.Listener {
	path := func() string {
		var p string
		slot.View(func(cfg *sharedconfig.Config) { p = cfg.Path() })
		return p
	}
	return sharedaudit.NewListener(recorder, gen, path, logger)
}
