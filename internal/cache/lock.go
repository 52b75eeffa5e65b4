package cache

import (
	"cellar/internal/utils"
	"fmt"

	"github.com/gofrs/flock"
)

// ProcessLock serializes whole-cellar operations across processes. An
// install run takes it before planning and holds it until the pipeline
// finishes.
type ProcessLock struct {
	fl *flock.Flock
}

// NewProcessLock returns a lock backed by the given file path.
func NewProcessLock(path string) *ProcessLock {
	return &ProcessLock{fl: flock.New(path)}
}

// Acquire takes the lock without blocking. A held lock reports an
// error naming the lock file so the losing process can point at it.
func (l *ProcessLock) Acquire() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire process lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another cellar process holds %s", l.fl.Path())
	}
	return nil
}

// Release drops the lock. Safe to call when the lock was never taken.
func (l *ProcessLock) Release() {
	if err := l.fl.Unlock(); err != nil {
		utils.Debug("Failed to release process lock: %v", err)
	}
}
