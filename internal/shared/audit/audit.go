// Package audit keeps a trail of configuration reloads. A listener attached
// to the change fan-out records one entry per reload pulse; the trail backs
// the admin reload-history endpoint.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	shareduid "github.com/joshuarp/liveconfig/internal/shared/uid"
)

// Entry is one recorded reload.
type Entry struct {
	ID         string    `db:"id" json:"id"`
	Path       string    `db:"path" json:"path"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}

// Recorder is the interface consumers depend on for the reload trail.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// Record appends one entry to the trail.
	Record(ctx context.Context, entry Entry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

const memoryCapacity = 128

var _ Recorder = (*memoryRecorder)(nil)

// memoryRecorder keeps the most recent entries in process memory. Used when
// no audit database is configured, and in tests.
type memoryRecorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryRecorder creates an in-memory Recorder bounded to the most recent
// entries.
func NewMemoryRecorder() Recorder {
	return &memoryRecorder{}
}

func (r *memoryRecorder) Record(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	if len(r.entries) > memoryCapacity {
		r.entries = r.entries[len(r.entries)-memoryCapacity:]
	}
	return nil
}

func (r *memoryRecorder) Recent(_ context.Context, limit int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.entries) {
		limit = len(r.entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(r.entries) - 1; i >= len(r.entries)-limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

// Listener consumes reload pulses and records one audit entry per pulse.
type Listener struct {
	recorder Recorder
	gen      shareduid.Generator
	path     func() string
	logger   *slog.Logger
}

// NewListener creates a Listener. path yields the watched path at record
// time (read from the live configuration).
func NewListener(recorder Recorder, gen shareduid.Generator, path func() string, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{recorder: recorder, gen: gen, path: path, logger: logger}
}

// Listen blocks, recording an entry for every pulse until ctx is cancelled
// or the pulse channel closes. Recording failures are logged, never fatal:
// the audit trail is best-effort and must not disturb the reload pipeline.
func (l *Listener) Listen(ctx context.Context, pulses <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-pulses:
			if !ok {
				return
			}
			l.record(ctx)
		}
	}
}

func (l *Listener) record(ctx context.Context) {
	id, err := l.gen.Generate(ctx)
	if err != nil {
		l.logger.Error("failed to generate reload audit id", "error", err)
		return
	}

	entry := Entry{ID: id, Path: l.path(), OccurredAt: time.Now().UTC()}
	if err := l.recorder.Record(ctx, entry); err != nil {
		l.logger.Error("failed to record reload audit entry", "id", entry.ID, "error", err)
		return
	}
	l.logger.Info("configuration reload recorded", "id", entry.ID, "path", entry.Path)
}
