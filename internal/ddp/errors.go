package ddp

import (
	"errors"
	"fmt"

	"ddpsdk/internal/services"
)

var (
	// ErrStaging marks failures that happen before the engine is launched.
	ErrStaging = errors.New("ddp staging failed")
	// ErrOutputContract marks a zero exit without the expected output.
	ErrOutputContract = errors.New("ddp output contract violated")
)

// EngineError reports a non-zero engine exit. Message is the best available
// description; Stderr is the raw diagnostic stream, possibly empty.
type EngineError struct {
	Message  string
	Stderr   string
	ExitCode int
}

func (e *EngineError) Error() string {
	return e.Message
}

// Is lets callers match engine failures with services.ErrExternalTool.
func (e *EngineError) Is(target error) bool {
	return target == services.ErrExternalTool
}

// translateFailure builds the EngineError for a non-zero outcome. The message
// prefers stderr, then stdout, then a synthesized exit-code message.
func translateFailure(outcome Outcome) *EngineError {
	message := outcome.Stderr
	if message == "" {
		message = outcome.Stdout
	}
	if message == "" {
		message = fmt.Sprintf("ddp exited with code %d", outcome.ExitCode)
	}
	return &EngineError{
		Message:  message,
		Stderr:   outcome.Stderr,
		ExitCode: outcome.ExitCode,
	}
}

// StagingError reports a failure to create, write, or remove a staging directory.
type StagingError struct {
	Op   string
	Path string
	Err  error
}

func (e *StagingError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("stage ddp input: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("stage ddp input: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }

func (e *StagingError) Is(target error) bool { return target == ErrStaging }

// ContractError reports that the engine exited 0 but its output was missing or
// unparsable.
type ContractError struct {
	Mode Mode
	Path string
	Err  error
}

func (e *ContractError) Error() string {
	source := e.Path
	if source == "" {
		source = "stdout"
	}
	return fmt.Sprintf("ddp %s: output contract violated: %s: %v", e.Mode, source, e.Err)
}

func (e *ContractError) Unwrap() error { return e.Err }

func (e *ContractError) Is(target error) bool { return target == ErrOutputContract }
