package stagecache

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock serializes writers for one run_id across processes. The executor
// assumes a single writer per run; the lock turns that assumption into an
// enforced invariant when two invocations race on the same recording.
type RunLock struct {
	fl *flock.Flock
}

// LockRun acquires a non-blocking advisory lock for runID in the cache
// directory. It fails fast when another process already holds the run.
func LockRun(cacheDir, runID string) (*RunLock, error) {
	path := filepath.Join(cacheDir, sanitizeRunID(runID)+".lock")
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock run %s: %w", runID, err)
	}
	if !locked {
		return nil, fmt.Errorf("run %s is already being processed by another parley instance", runID)
	}
	return &RunLock{fl: fl}, nil
}

// Unlock releases the run lock.
func (l *RunLock) Unlock() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}

func sanitizeRunID(runID string) string {
	out := make([]rune, 0, len(runID))
	for _, r := range runID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
