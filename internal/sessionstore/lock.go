package sessionstore

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked indicates another render already holds the state directory.
var ErrLocked = errors.New("another render is already running")

// RenderLock serializes renders against a shared state directory so two
// invocations cannot race on the session database or work files.
type RenderLock struct {
	lock *flock.Flock
	path string
}

// NewRenderLock prepares a lock file in the state directory without
// acquiring it.
func NewRenderLock(stateDir string) *RenderLock {
	path := filepath.Join(stateDir, "render.lock")
	return &RenderLock{lock: flock.New(path), path: path}
}

// Path returns the lock file location.
func (l *RenderLock) Path() string {
	return l.path
}

// Acquire takes the lock or fails fast with ErrLocked when another process
// holds it.
func (l *RenderLock) Acquire() error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire render lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock file %s)", ErrLocked, l.path)
	}
	return nil
}

// Release gives the lock back. Safe to call after a failed Acquire.
func (l *RenderLock) Release() error {
	return l.lock.Unlock()
}
