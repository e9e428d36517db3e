package audit

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var _ Recorder = (*sqlRecorder)(nil)

type sqlRecorder struct {
	db *sqlx.DB
}

// NewSQLRecorder creates a Recorder persisting the trail to the
// config_reloads table.
func NewSQLRecorder(db *sqlx.DB) (Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("audit: database handle must not be nil")
	}
	return &sqlRecorder{db: db}, nil
}

func (r *sqlRecorder) Record(ctx context.Context, entry Entry) error {
	const query = `INSERT INTO config_reloads (id, path, occurred_at) VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, entry.ID, entry.Path, entry.OccurredAt); err != nil {
		return fmt.Errorf("audit: failed to insert reload entry %q: %w", entry.ID, err)
	}
	return nil
}

func (r *sqlRecorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	const query = `SELECT id, path, occurred_at FROM config_reloads ORDER BY occurred_at DESC LIMIT $1`

	if limit <= 0 {
		limit = 20
	}

	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("audit: failed to list reload entries: %w", err)
	}
	return entries, nil
}
