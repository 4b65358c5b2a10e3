package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"ddpsdk/internal/ddp"
	"ddpsdk/internal/deps"
)

// MinFreeBytes is the free space below which the staging check fails. A
// single audio CD decodes to roughly 800 MB of WAV.
const MinFreeBytes uint64 = 1 << 30

// CheckEngine verifies the engine executable can be launched.
func CheckEngine(locator ddp.Locator) Result {
	status := deps.CheckEngine(locator)
	if !status.Available {
		return Result{Name: status.Name, Detail: status.Detail}
	}
	return Result{Name: status.Name, Passed: true, Detail: fmt.Sprintf("%s (%s)", status.Resolved, status.Detail)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minFree bytes available.
func CheckFreeSpace(name, path string, minFree uint64) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s free on %s", humanize.IBytes(free), path)
	if free < minFree {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need %s)", detail, humanize.IBytes(minFree))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// FreeBytes returns the bytes available to unprivileged users on path's filesystem.
func FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil //nolint:gosec
}

// CheckLicenseKey reports whether a licence key is available without revealing it.
func CheckLicenseKey(key string, err error) Result {
	const name = "Licence key"
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if key == "" {
		return Result{Name: name, Detail: "not configured (set DDP_LICENSE_KEY or engine.license_key)"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("configured (%d characters)", len(key))}
}

// CheckHistory verifies the history database directory is writable.
func CheckHistory(path string) Result {
	result := CheckDirectoryAccess("History", filepath.Dir(path))
	if result.Passed {
		result.Detail = path
	}
	return result
}
