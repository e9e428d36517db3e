package hotload

import (
	"errors"
	"sync"
	"time"
)

// fakeConfig is a minimal Loadable for exercising the loader and the watch
// pipeline without touching the filesystem.
type fakeConfig struct {
	mu       sync.Mutex
	path     string
	reloads  int
	failNext int
	attempts []time.Time
	value    string
	pending  string
}

var errFakeReload = errors.New("fake reload failure")

func newFakeConfig(path string) *fakeConfig {
	return &fakeConfig{path: path, value: "initial", pending: "initial"}
}

func (f *fakeConfig) Path() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.path
}

func (f *fakeConfig) BindPath(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.path = path
}

func (f *fakeConfig) Reload() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, time.Now())
	if f.failNext > 0 {
		f.failNext--
		return errFakeReload
	}
	f.reloads++
	f.value = f.pending
	return nil
}

func (f *fakeConfig) failTimes(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = n
}

func (f *fakeConfig) stage(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = value
}

func (f *fakeConfig) reloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads
}

func (f *fakeConfig) attemptTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Time, len(f.attempts))
	copy(out, f.attempts)
	return out
}

func (f *fakeConfig) current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}
