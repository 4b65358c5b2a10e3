// Package deps reports whether the DDP engine executable can be resolved and
// which setting selected it.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"ddpsdk/internal/ddp"
)

// Source names the setting that chose the engine binary.
type Source string

const (
	SourceEnv    Source = ddp.BinaryEnv
	SourceConfig Source = "config"
	SourcePath   Source = "PATH"
)

// Status is the result of resolving the engine.
type Status struct {
	Name      string
	Command   string
	Resolved  string
	Source    Source
	Available bool
	Detail    string
}

// CheckEngine resolves the binary the locator selects and confirms it is an
// executable file.
func CheckEngine(locator ddp.Locator) Status {
	status := Status{
		Name:    "DDP engine",
		Command: locator.Path(),
		Source:  sourceOf(locator),
	}

	resolved, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found (from %s)", status.Command, status.Source)
		return status
	}
	status.Resolved = resolved

	info, err := os.Stat(resolved)
	if err != nil || !isExecutable(info) {
		status.Detail = fmt.Sprintf("%s is not executable (from %s)", resolved, status.Source)
		return status
	}
	status.Available = true
	status.Detail = fmt.Sprintf("from %s", status.Source)
	return status
}

func sourceOf(locator ddp.Locator) Source {
	if locator.Lookup != nil {
		if value, ok := locator.Lookup(ddp.BinaryEnv); ok && value != "" {
			return SourceEnv
		}
	}
	if locator.Configured != "" {
		return SourceConfig
	}
	return SourcePath
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
