package ddp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// StagingPrefix names every staging directory so stale ones can be found later.
const StagingPrefix = "ddp-in-"

// stage writes parts into a fresh ddp-in-<uuid> directory under root and returns
// its path. On any failure the partially written directory is removed.
func stage(root string, parts PartSet) (dir string, err error) {
	if len(parts) == 0 {
		return "", &StagingError{Op: "validate", Err: errors.New("no input parts supplied")}
	}
	for name := range parts {
		if err := validatePartName(name); err != nil {
			return "", &StagingError{Op: "validate", Err: err}
		}
	}
	if name := collidingParts(parts); name != "" {
		return "", &StagingError{Op: "validate", Err: fmt.Errorf("parts %s and %s stage to the same file", PartSectorData, name)}
	}

	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", &StagingError{Op: "create root", Path: root, Err: err}
	}

	dir = filepath.Join(root, StagingPrefix+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", &StagingError{Op: "create", Path: dir, Err: err}
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(dir)
			dir = ""
		}
	}()

	for _, name := range parts.Names() {
		target := filepath.Join(dir, StagedFileName(name))
		if err := os.WriteFile(target, parts[name], 0o600); err != nil {
			return "", &StagingError{Op: "write", Path: target, Err: err}
		}
	}
	return dir, nil
}

// collidingParts returns a key that would overwrite the renamed sector stream.
func collidingParts(parts PartSet) string {
	if _, ok := parts[PartSectorData]; !ok {
		return ""
	}
	if _, ok := parts[sectorDataFileName]; ok {
		return sectorDataFileName
	}
	return ""
}

// withStaging stages parts, runs fn with the directory, and removes the
// directory on every path. A removal failure is reported only when fn succeeded.
func withStaging(root string, parts PartSet, fn func(dir string) error) error {
	dir, err := stage(root, parts)
	if err != nil {
		return err
	}
	runErr := fn(dir)
	if rmErr := os.RemoveAll(dir); rmErr != nil && runErr == nil {
		return &StagingError{Op: "remove", Path: dir, Err: rmErr}
	}
	return runErr
}
