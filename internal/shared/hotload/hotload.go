// Package hotload keeps an in-memory configuration value synchronized with
// its file on disk for the lifetime of the process. It owns the initial
// bounded-retry load, the file-watch supervision loop, the reload critical
// section, and the change fan-out signal. The configuration schema itself and
// any clients built from it are the caller's concern, reached through the
// Loadable contract.
package hotload

import (
	"sync"
	"sync/atomic"
)

// Loadable is the contract a configuration type satisfies to be hot-reloaded.
// Implementations must make Reload all-or-nothing: on error the previous
// in-memory value is left untouched.
type Loadable interface {
	// Path returns the filesystem path the value is bound to.
	Path() string

	// BindPath binds the value to a filesystem path. Called once by the
	// initial loader; the binding is immutable afterwards.
	BindPath(path string)

	// Reload re-reads the bound path and replaces the value's contents.
	// Either it fully succeeds or it leaves the value unchanged.
	Reload() error
}

// Slot is the single shared location holding the current configuration value.
// Many readers may hold read access concurrently; the watch pipeline is the
// sole writer, and only for the duration of one Reload call. Construct one
// per watched file and pass it explicitly to every collaborator.
type Slot[C Loadable] struct {
	mu      sync.RWMutex
	value   C
	reloads atomic.Uint64
}

// NewSlot wraps value in a Slot.
func NewSlot[C Loadable](value C) *Slot[C] {
	return &Slot[C]{value: value}
}

// View invokes fn with the current value under shared read access.
// fn must not retain the value or any of its reference fields past the call.
func (s *Slot[C]) View(fn func(C)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.value)
}

// reload runs the value's Reload under exclusive write access.
func (s *Slot[C]) reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.value.Reload(); err != nil {
		return err
	}
	s.reloads.Add(1)
	return nil
}

// Reloads reports how many reloads have been applied since construction.
// The initial load happens before the slot exists and is not counted.
func (s *Slot[C]) Reloads() uint64 {
	return s.reloads.Load()
}
