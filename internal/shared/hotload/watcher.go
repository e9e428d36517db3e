package hotload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// ErrSourceClosed reports that a change-event stream terminated without the
// subscription being torn down by its owner.
var ErrSourceClosed = errors.New("hotload: watch channel has been closed")

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// Source produces change-event streams. Defaults to an fsnotify-backed
	// source.
	Source ChangeSource

	// Signal, when non-nil, receives one pulse per successful reload.
	Signal *Signal

	Logger *slog.Logger
}

// Watcher supervises a live change-source subscription for a Slot's bound
// path and applies one reload per completed file write, in the order the
// writes were observed. It survives watcher-backend failures by
// resubscribing; it stops only when the context is cancelled or when opening
// a subscription itself fails.
type Watcher[C Loadable] struct {
	slot   *Slot[C]
	source ChangeSource
	signal *Signal
	logger *slog.Logger
}

// NewWatcher creates a Watcher over slot.
func NewWatcher[C Loadable](slot *Slot[C], opts WatcherOptions) *Watcher[C] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	source := opts.Source
	if source == nil {
		source = NewFsnotifySource(logger)
	}
	return &Watcher[C]{
		slot:   slot,
		source: source,
		signal: opts.Signal,
		logger: logger,
	}
}

// Run watches the slot's bound path until ctx is cancelled. The path must
// exist when Run is called; non-existence is a startup error, not a
// retryable condition. Poll failures (stream closed, backend errors, failed
// reloads) are logged and recovered by resubscribing immediately; an error
// opening a subscription is returned to the caller.
func (w *Watcher[C]) Run(ctx context.Context) error {
	var path string
	w.slot.View(func(c C) { path = c.Path() })

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("hotload: no file found at %q: %w", path, err)
	}
	recursive := info.IsDir()

	w.logger.Info("watching configuration file", "path", path, "recursive", recursive)

	for {
		if err := w.watchOnce(ctx, path, recursive); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// watchOnce runs one subscribe-poll cycle. Poll failures are swallowed here
// after a warning so the caller restarts the cycle; subscription failures
// propagate.
func (w *Watcher[C]) watchOnce(ctx context.Context, path string, recursive bool) error {
	events, stop, err := w.source.Subscribe(ctx, path, recursive)
	if err != nil {
		return fmt.Errorf("hotload: failed to subscribe to %q: %w", path, err)
	}
	defer stop()

	if err := w.poll(ctx, events); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.Warn("watch pipeline failed, resubscribing", "path", path, "error", err)
	}
	return nil
}

// poll drains the event stream one item at a time. Each event is fully
// handled, including the exclusive-write reload, before the next is read, so
// reloads apply in observation order. Any failure stops this poll invocation;
// the stream is not resumable and the caller must subscribe afresh.
func (w *Watcher[C]) poll(ctx context.Context, events <-chan Result) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok := <-events:
			if !ok {
				return ErrSourceClosed
			}
			if res.Err != nil {
				return fmt.Errorf("hotload: watch error: %w", res.Err)
			}
			if err := w.reactTo(res.Event); err != nil {
				return err
			}
		}
	}
}

// reactTo applies one change event. Only a completed write qualifies; every
// other kind is discarded with no side effects. A failed reload leaves the
// slot untouched and propagates, as does a pulse on a torn-down signal.
func (w *Watcher[C]) reactTo(ev Event) error {
	if !ev.Op.Has(OpCloseWrite) {
		return nil
	}

	w.logger.Debug("config file write completed", "path", ev.Path, "op", ev.Op.String())

	if err := w.slot.reload(); err != nil {
		return fmt.Errorf("hotload: reload failed: %w", err)
	}

	if w.signal != nil {
		if err := w.signal.Pulse(); err != nil {
			return fmt.Errorf("hotload: change notification failed: %w", err)
		}
	}
	return nil
}
