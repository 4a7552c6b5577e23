package shared

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock is an exclusive, cross-process lock guarding archive runs.
type RunLock struct {
	path string
	lock *flock.Flock
}

// NewRunLock creates (but does not acquire) a lock backed by the file at path.
func NewRunLock(path string) *RunLock {
	if path == "" {
		path = filepath.Join(os.TempDir(), "dwarchive.lock")
	}
	return &RunLock{path: path, lock: flock.New(path)}
}

// TryLock acquires the lock without blocking. It returns [ErrRunInProgress] when another process holds it.
func (l *RunLock) TryLock() error {
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create lock directory: %w", err)
		}
	}

	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	if !ok {
		return fmt.Errorf("%w: lock %s is held", ErrRunInProgress, l.path)
	}
	return nil
}

// Unlock releases the lock.
func (l *RunLock) Unlock() error {
	return l.lock.Unlock()
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.path
}
