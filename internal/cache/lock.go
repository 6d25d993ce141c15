package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// LockFileName is the lock file kept in the cache root.
const LockFileName = ".lock"

// FileLock is the one lock guarding every segment: an flock on <root>/.lock
// for other processes plus a mutex for goroutines of this one, which an flock
// held through a single descriptor does not exclude.
type FileLock struct {
	mu sync.Mutex
	fl *flock.Flock
}

// NewFileLock creates root if needed and prepares the lock file handle.
func NewFileLock(root string) (*FileLock, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", root, err)
	}
	return &FileLock{fl: flock.New(filepath.Join(root, LockFileName))}, nil
}

// Lock blocks until both the mutex and the file lock are held.
func (l *FileLock) Lock() error {
	l.mu.Lock()
	if err := l.fl.Lock(); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("lock %s: %w", l.fl.Path(), err)
	}
	return nil
}

// Unlock releases the file lock, then the mutex.
func (l *FileLock) Unlock() error {
	defer l.mu.Unlock()
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.fl.Path(), err)
	}
	return nil
}
