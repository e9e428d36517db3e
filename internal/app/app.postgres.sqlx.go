package app

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	sharedconfig "github.com/joshuarp/liveconfig/internal/shared/config"
	"github.com/joshuarp/liveconfig/internal/shared/hotload"
)

// provideAuditPostgresSQLX opens the audit trail database. An empty
// database.host means no database is configured and the trail stays
// in-memory; that is not an error.
func provideAuditPostgresSQLX(slot *hotload.Slot[*sharedconfig.Config]) (*sqlx.DB, error) {
	var dbCfg sharedconfig.DatabaseConfig
	slot.View(func(cfg *sharedconfig.Config) { dbCfg = cfg.Database })

	if dbCfg.Host == "" {
		return nil, nil
	}

	db, err := sqlx.Open("pgx", dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db(audit): failed to open postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("db(audit): failed to ping postgres: %w", err)
	}

	return db, nil
}
