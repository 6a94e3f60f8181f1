// Package devicelock serializes control of a device zone across processes.
//
// A media server exposes one logical session per (endpoint, zone) pair, and
// two reconcilers driving the same zone fight each other. Every device-driving
// command therefore holds an advisory lock file in the state directory for its
// duration.
package devicelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// ErrBusy is returned when another process holds the lock.
var ErrBusy = errors.New("device zone is in use by another process")

const retryDelay = 50 * time.Millisecond

// Lock is a held device zone lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Path returns the lock file for address and zone inside stateDir.
func Path(stateDir, address string, zone int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(address) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return filepath.Join(stateDir, "locks", fmt.Sprintf("%s-zone%d.lock", b.String(), zone))
}

// Acquire takes the lock for address and zone. With wait > 0 it polls until
// the lock frees up, wait elapses, or ctx ends; otherwise it tries once.
func Acquire(ctx context.Context, stateDir, address string, zone int, wait time.Duration) (*Lock, error) {
	path := Path(stateDir, address, zone)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)

	var (
		ok  bool
		err error
	)
	if wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		ok, err = fl.TryLockContext(waitCtx, retryDelay)
		if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = nil
		}
	} else {
		ok, err = fl.TryLock()
	}
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s zone %d (lock %s)", ErrBusy, address, zone, path)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks the lock file. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
