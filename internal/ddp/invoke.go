package ddp

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

// Mode selects the engine subcommand.
type Mode int

const (
	// ModeProcess writes metadata.json plus one WAV per track.
	ModeProcess Mode = iota
	// ModeJSON emits only the metadata document.
	ModeJSON
)

func (m Mode) String() string {
	switch m {
	case ModeProcess:
		return "process"
	case ModeJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Invocation describes a single engine run.
type Invocation struct {
	Binary     string
	Mode       Mode
	Input      string
	Output     string // process mode output directory
	LicenseKey string
	// Destination is the optional --output file for json mode.
	Destination string
}

// Args renders the engine argument vector (without the binary).
//
//	process <input> <output> --license-key <key>
//	json <input> --license-key <key> [--output <destination>]
func (inv Invocation) Args() []string {
	switch inv.Mode {
	case ModeJSON:
		args := []string{"json", inv.Input, "--license-key", inv.LicenseKey}
		if inv.Destination != "" {
			args = append(args, "--output", inv.Destination)
		}
		return args
	default:
		return []string{"process", inv.Input, inv.Output, "--license-key", inv.LicenseKey}
	}
}

// Outcome is what the engine reported for one run.
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Executor runs the engine to completion. A non-zero exit is reported through
// Outcome.ExitCode with a nil error; the error return is reserved for launch
// failures and context cancellation.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (Outcome, error)
}

// waitDelay bounds how long output is drained after the engine is killed.
const waitDelay = 5 * time.Second

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (Outcome, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	started := time.Now()
	err := cmd.Run()
	outcome := Outcome{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(started),
	}
	if err == nil {
		return outcome, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return outcome, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// -1 when the engine was killed by a signal.
		outcome.ExitCode = exitErr.ExitCode()
		return outcome, nil
	}
	return outcome, err
}

// trimOutputPath drops one trailing separator so the engine and the metadata
// path agree on the directory name.
func trimOutputPath(path string) string {
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return strings.TrimSuffix(path, "/")
	}
	return path
}
