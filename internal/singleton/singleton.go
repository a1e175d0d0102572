// SPDX-License-Identifier: AGPL-3.0-only

// Package singleton guards the data directory with a file lock so two server
// processes never share one SQLite index.
package singleton

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock represents an acquired lock on a data directory.
type Lock struct {
	flock *flock.Flock
}

// TryAcquire attempts to lock dataDir. It returns the lock and true if this
// process is now the owner, or nil and false if another process already holds
// it. The directory is created when missing (first run).
func TryAcquire(dataDir string) (*Lock, bool, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, false, fmt.Errorf("singleton: create data dir %s: %w", dataDir, err)
	}

	lockPath := filepath.Join(dataDir, "course-rag.lock")
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("singleton: try lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, false, nil
	}
	return &Lock{flock: fl}, true, nil
}

// Release releases the lock.
func (l *Lock) Release() error {
	return l.flock.Unlock()
}
