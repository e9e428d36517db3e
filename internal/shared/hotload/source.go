package hotload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Op describes the kind of action a change event reports on the watched path.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod

	// OpCloseWrite reports that a file opened for writing has been closed,
	// i.e. an edit has fully completed. This is the only op that qualifies
	// for a reload.
	OpCloseWrite
)

// Has reports whether o contains all bits of h.
func (o Op) Has(h Op) bool { return o&h == h }

func (o Op) String() string {
	var parts []string
	for _, n := range []struct {
		op   Op
		name string
	}{
		{OpCreate, "CREATE"},
		{OpWrite, "WRITE"},
		{OpRemove, "REMOVE"},
		{OpRename, "RENAME"},
		{OpChmod, "CHMOD"},
		{OpCloseWrite, "CLOSE_WRITE"},
	} {
		if o.Has(n.op) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// Event is one discrete change observed on the watched path.
type Event struct {
	Path string
	Op   Op
}

// Result is one item of a change-event stream: either an event or a per-event
// error reported by the underlying watcher backend.
type Result struct {
	Event Event
	Err   error
}

// StopFunc tears down a subscription. The event channel is closed afterwards.
type StopFunc func() error

// ChangeSource produces streams of change events for a watched path.
// The returned channel terminates (is closed) only when the subscription is
// torn down or the backend dies; consumers treat an unexpected close as a
// stream failure.
type ChangeSource interface {
	Subscribe(ctx context.Context, path string, recursive bool) (<-chan Result, StopFunc, error)
}

// FsnotifySource is the inotify-backed ChangeSource. It registers for
// close-write events, which are only delivered on Linux; this subsystem
// targets Linux deployments.
//
// The backend's delivery goroutine is bridged into a single capacity-1
// hand-off channel: the bridge blocks until the previous event has been
// accepted, so the backend can never race ahead of a slow consumer and
// silently drop events.
type FsnotifySource struct {
	logger *slog.Logger
}

var _ ChangeSource = (*FsnotifySource)(nil)

// NewFsnotifySource creates an fsnotify-backed change source.
func NewFsnotifySource(logger *slog.Logger) *FsnotifySource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FsnotifySource{logger: logger}
}

func (s *FsnotifySource) Subscribe(ctx context.Context, path string, recursive bool) (<-chan Result, StopFunc, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("hotload: failed to create fsnotify watcher: %w", err)
	}

	if err := s.register(watcher, path, recursive); err != nil {
		watcher.Close()
		return nil, nil, err
	}

	out := make(chan Result, 1)
	go s.bridge(ctx, watcher, out)

	return out, watcher.Close, nil
}

// watchedOps includes close-write on top of the portable set so the reactor
// can recognize a completed edit.
const watchedOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove |
	fsnotify.Rename | fsnotify.UnportableCloseWrite

func (s *FsnotifySource) register(watcher *fsnotify.Watcher, path string, recursive bool) error {
	add := func(p string) error {
		if err := watcher.AddWith(p, fsnotify.WithOps(watchedOps)); err != nil {
			return fmt.Errorf("hotload: failed to watch %q: %w", p, err)
		}
		return nil
	}

	if err := add(path); err != nil {
		return err
	}
	if !recursive {
		return nil
	}

	// inotify watches are not recursive; walk the tree and add every
	// subdirectory explicitly.
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("hotload: failed to walk %q: %w", p, err)
		}
		if !d.IsDir() || p == path {
			return nil
		}
		return add(p)
	})
}

// bridge forwards the watcher's events and errors into out, one at a time.
// Closing the watcher closes its channels, which terminates the bridge and
// closes out.
func (s *FsnotifySource) bridge(ctx context.Context, watcher *fsnotify.Watcher, out chan<- Result) {
	defer close(out)

	forward := func(res Result) bool {
		select {
		case out <- res:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !forward(Result{Event: Event{Path: ev.Name, Op: mapOp(ev.Op)}}) {
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if !forward(Result{Err: err}) {
				return
			}
		}
	}
}

func mapOp(op fsnotify.Op) Op {
	var out Op
	if op.Has(fsnotify.Create) {
		out |= OpCreate
	}
	if op.Has(fsnotify.Write) {
		out |= OpWrite
	}
	if op.Has(fsnotify.Remove) {
		out |= OpRemove
	}
	if op.Has(fsnotify.Rename) {
		out |= OpRename
	}
	if op.Has(fsnotify.Chmod) {
		out |= OpChmod
	}
	if op.Has(fsnotify.UnportableCloseWrite) {
		out |= OpCloseWrite
	}
	return out
}
