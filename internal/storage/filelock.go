package storage

import (
	"fmt"
	"os"
	"syscall"
)

// lockFile acquires an exclusive advisory lock (LOCK_EX) on the given path,
// creating the file if needed, and returns an unlock function. Concurrent
// invocations updating the same knowledge base serialize here instead of
// racing between backup-and-load and write-back.
func lockFile(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("acquiring file lock: %w", err)
	}

	return func() error {
		defer f.Close()
		return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}, nil
}
