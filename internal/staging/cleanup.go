package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ddpsdk/internal/ddp"
	"ddpsdk/internal/logging"
)

// DefaultMaxAge is how old a staging directory must be before CleanStale
// considers it orphaned. Live invocations never run this long.
const DefaultMaxAge = 6 * time.Hour

// MinMaxAge is the smallest age CleanStale accepts. Younger directories may
// belong to an engine run that is still in progress.
const MinMaxAge = time.Hour

// CleanStaleResult contains the outcome of a stale directory cleanup operation.
type CleanStaleResult struct {
	Removed []string
	// LocksRemoved lists output lock files that no invocation held.
	LocksRemoved []string
	Errors       []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// DirInfo contains metadata about a staging directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
	Files   int
}

// Root returns the directory staging directories are created under.
func Root(configured string) string {
	if root := strings.TrimSpace(configured); root != "" {
		return root
	}
	return os.TempDir()
}

// CleanStale removes ddp-in-* directories under root older than maxAge, then
// prunes output lock files nobody holds. Directories are left behind only when
// a process is killed mid-invocation. Other entries are never touched. A
// maxAge below MinMaxAge is raised to MinMaxAge.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}
	if logger == nil {
		logger = logging.NewNop()
	}
	maxAge = max(maxAge, MinMaxAge)
	defer func() {
		if ctx.Err() == nil {
			pruneLocks(Root(root), &result, logger)
		}
	}()

	dirs, err := ListDirectories(root)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: Root(root), Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, dir := range dirs {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir.Path, Error: ctx.Err()})
			return result
		}
		if !dir.ModTime.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(dir.Path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir.Path, Error: err})
			logger.Warn("failed to remove stale staging directory",
				logging.String("path", dir.Path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "staging_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dir.Path)
		logger.Info("removed stale staging directory",
			logging.String("path", dir.Path),
			logging.Duration("age", time.Since(dir.ModTime)),
			logging.Int64("bytes", dir.Size),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}
	return result
}

func pruneLocks(root string, result *CleanStaleResult, logger *slog.Logger) {
	removed, err := ddp.PruneOutputLocks(root)
	result.LocksRemoved = removed
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: filepath.Join(root, ddp.LockDirName), Error: err})
		logging.WarnWithContext(logger, "failed to prune output locks", "lock_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "unused lock files remain"),
		)
	}
	if len(removed) > 0 {
		logger.Debug("pruned output locks", logging.Int("count", len(removed)))
	}
}

// ListDirectories returns every ddp-in-* directory under root with its size.
func ListDirectories(root string) ([]DirInfo, error) {
	root = Root(root)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), ddp.StagingPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirPath := filepath.Join(root, entry.Name())
		size, files := dirSize(dirPath)
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
			Files:   files,
		})
	}
	return dirs, nil
}

// dirSize sums regular file sizes below path, best effort.
func dirSize(path string) (int64, int) {
	var (
		size  int64
		files int
	)
	_ = filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
			files++
		}
		return nil
	})
	return size, files
}
