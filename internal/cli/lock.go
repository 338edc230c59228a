package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// LockTimeout is the timeout for acquiring the cache lock.
const LockTimeout = 2 * time.Second

const lockPollInterval = 10 * time.Millisecond

// cacheLock is an exclusive flock on "<cache>.lock". One tdcache process owns
// a cache at a time.
type cacheLock struct {
	path string
	file *os.File
}

// release removes the lock file and releases the lock.
// Order matters: remove while holding lock, then unlock, then close.
func (l *cacheLock) release() {
	if l == nil || l.file == nil {
		return
	}

	_ = os.Remove(l.path)
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}

// acquireLock takes an exclusive lock for cachePath, giving up after timeout.
// A lock file that was removed and recreated while waiting is retried, so two
// processes never hold locks on different inodes of the same path.
func acquireLock(cachePath string, timeout time.Duration) (*cacheLock, error) {
	lockPath := cachePath + ".lock"

	err := os.MkdirAll(filepath.Dir(lockPath), 0o750)
	if err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	deadline := time.Now().Add(timeout)

	for {
		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open lock file: %w", err)
		}

		err = unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			if sameFile(file, lockPath) {
				return &cacheLock{path: lockPath, file: file}, nil
			}

			// Replaced while we were waiting.
			_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)
			_ = file.Close()

			continue
		}

		_ = file.Close()

		if !errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("flock: %w", err)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s (another tdcache is running?)", ErrLockTimeout, cachePath)
		}

		time.Sleep(lockPollInterval)
	}
}

func sameFile(file *os.File, path string) bool {
	var opened, current unix.Stat_t

	if unix.Fstat(int(file.Fd()), &opened) != nil {
		return false
	}

	if unix.Stat(path, &current) != nil {
		return false
	}

	return opened.Dev == current.Dev && opened.Ino == current.Ino
}
