package hotload

import (
	"errors"
	"sync"
)

// ErrSignalClosed is returned by Pulse after the signal has been torn down.
// Tearing down before the watch pipeline stops is an ordering bug in the
// caller, so it surfaces as an error rather than being ignored.
var ErrSignalClosed = errors.New("hotload: change signal has been closed")

// Signal is the no-payload broadcast published after each successful reload.
// It is a signal, not a queue: a listener that is not draining its channel
// misses pulses and must re-read the Slot after being woken, never infer
// content from the pulse count. Zero listeners is a valid steady state.
type Signal struct {
	mu        sync.Mutex
	listeners []chan struct{}
	closed    bool
}

// NewSignal creates an empty fan-out signal.
func NewSignal() *Signal {
	return &Signal{}
}

// Subscribe registers a new listener and returns its pulse channel.
// The channel has capacity 1 so a waiting listener never blocks Pulse.
func (s *Signal) Subscribe() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan struct{}, 1)
	if s.closed {
		close(ch)
		return ch
	}
	s.listeners = append(s.listeners, ch)
	return ch
}

// Pulse notifies every current listener that a reload just completed.
// It never blocks: a listener with an undelivered pulse is skipped.
// Publishing with zero listeners succeeds.
func (s *Signal) Pulse() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSignalClosed
	}
	for _, ch := range s.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Close tears the signal down and closes every listener channel.
// Subsequent Pulse calls return ErrSignalClosed.
func (s *Signal) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.listeners {
		close(ch)
	}
	s.listeners = nil
}

// ListenerCount reports the number of registered listeners.
// Primarily useful for diagnostics and tests.
func (s *Signal) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}
