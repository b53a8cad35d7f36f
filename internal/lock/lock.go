package lock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

var ErrNoLockfile = errors.New("no LOCKFILE set in rdup.rc")

const retryDelay = 250 * time.Millisecond

type Lock struct {
	path string
	f    *flock.Flock
}

// Acquire blocks until the lockfile at path is held or ctx is done.
func Acquire(ctx context.Context, path string, log *zap.Logger) (*Lock, error) {
	if path == "" {
		return nil, ErrNoLockfile
	}
	if log == nil {
		log = zap.NewNop()
	}
	// Ensure the lockfile directory exists.
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return nil, err
	}

	l := &Lock{path: path, f: flock.New(path)}
	waiting := time.AfterFunc(2*time.Second, func() {
		log.Sugar().Infof("The lockfile %s is being used by another instance. Waiting.", path)
	})
	defer waiting.Stop()

	locked, err := l.f.TryLockContext(ctx, retryDelay)
	if err != nil {
		return nil, err
	} else if !locked {
		return nil, ctx.Err()
	}
	log.Debug("lock acquired", zap.String("lockfile", path))
	return l, nil
}

// Held reports whether another process currently holds the lockfile at path.
func Held(path string) (bool, error) {
	f := flock.New(path)
	locked, err := f.TryLock()
	if err != nil {
		return false, err
	}
	if locked {
		return false, f.Unlock()
	}
	return true, nil
}

func (l *Lock) Path() string { return l.path }

func (l *Lock) Release() error { return l.f.Unlock() }
