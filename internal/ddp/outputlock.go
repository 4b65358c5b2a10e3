package ddp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// LockDirName is the directory under the staging root holding output locks.
const LockDirName = "ddp-locks"

const (
	lockSuffix    = ".lock"
	lockRetryWait = 100 * time.Millisecond
)

// outputLock serializes engine runs that target the same output location.
type outputLock struct {
	lock *flock.Flock
}

// lockPathFor maps an output location to a lock file under root. The output
// itself is never touched so json mode without a destination writes nothing.
func lockPathFor(root, output string) (string, error) {
	abs, err := filepath.Abs(output)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	sum := sha256.Sum256([]byte(abs))
	if root == "" {
		root = os.TempDir()
	}
	return filepath.Join(root, LockDirName, hex.EncodeToString(sum[:8])+lockSuffix), nil
}

func acquireOutputLock(ctx context.Context, root, output string) (*outputLock, error) {
	path, err := lockPathFor(root, output)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	for {
		lock := flock.New(path)
		ok, err := lock.TryLockContext(ctx, lockRetryWait)
		if err != nil {
			return nil, fmt.Errorf("acquire output lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("acquire output lock: %s is busy", output)
		}
		// PruneOutputLocks may have unlinked the file between open and lock;
		// a lock on an unlinked inode excludes nobody.
		if lockedFileIsCurrent(lock, path) {
			return &outputLock{lock: lock}, nil
		}
		_ = lock.Close()
	}
}

func lockedFileIsCurrent(lock *flock.Flock, path string) bool {
	fh := lock.Fh()
	if fh == nil {
		return false
	}
	held, err := fh.Stat()
	if err != nil {
		return false
	}
	onDisk, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(held, onDisk)
}

// PruneOutputLocks removes lock files under root that no invocation holds and
// returns their paths. Held locks are skipped.
func PruneOutputLocks(root string) ([]string, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, LockDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read lock directory: %w", err)
	}

	var removed []string
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), lockSuffix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		lock := flock.New(path)
		ok, err := lock.TryLock()
		if err != nil {
			errs = append(errs, fmt.Errorf("lock %s: %w", path, err))
			continue
		}
		if !ok {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		} else if err == nil {
			removed = append(removed, path)
		}
		_ = lock.Close()
	}
	return removed, errors.Join(errs...)
}

func (l *outputLock) release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
