package ddp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ddpsdk/internal/logging"
	"ddpsdk/internal/services"
)

// RunRecord summarizes one engine invocation for the history ledger. The
// licence key is never recorded.
type RunRecord struct {
	ID          string
	Mode        Mode
	Binary      string
	Input       string
	Output      string
	Destination string
	ExitCode    int
	TrackCount  int
	Error       string
	StartedAt   time.Time
	Duration    time.Duration
}

// Recorder persists RunRecords. Record failures are logged, never returned.
type Recorder interface {
	Record(ctx context.Context, rec RunRecord) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLocator sets how the engine executable is resolved.
func WithLocator(locator Locator) Option {
	return func(c *Client) {
		c.locator = locator
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStagingRoot sets the parent directory for staging and lock files.
// Empty means os.TempDir.
func WithStagingRoot(dir string) Option {
	return func(c *Client) {
		c.stagingRoot = strings.TrimSpace(dir)
	}
}

// WithTimeout bounds each engine run. Zero disables the timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRecorder records every invocation.
func WithRecorder(recorder Recorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// Client invokes the DDP engine. It holds no per-call state and is safe for
// concurrent use.
type Client struct {
	locator     Locator
	exec        Executor
	logger      *slog.Logger
	stagingRoot string
	timeout     time.Duration
	recorder    Recorder
}

// New constructs a client. Without options it resolves the engine through
// DDP_SDK_BIN or PATH and imposes no timeout.
func New(opts ...Option) *Client {
	client := &Client{
		locator: LocatorFromEnv(""),
		exec:    commandExecutor{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "ddp")
	return client
}

// Process runs full processing on an existing DDP directory or archive and
// returns the metadata document the engine wrote to output. output is passed
// to the engine as given.
func (c *Client) Process(ctx context.Context, input, output, licenseKey string) (*Document, error) {
	if strings.TrimSpace(input) == "" {
		return nil, services.Wrap(services.ErrValidation, ModeProcess.String(), "validate", "input path required", nil)
	}
	if strings.TrimSpace(output) == "" {
		return nil, services.Wrap(services.ErrValidation, ModeProcess.String(), "validate", "output path required", nil)
	}
	return c.run(ctx, Invocation{
		Mode:       ModeProcess,
		Input:      input,
		Output:     output,
		LicenseKey: licenseKey,
	})
}

// ProcessParts stages in-memory parts into a temporary directory and runs full
// processing on it. One trailing "/" is trimmed from output. The staging
// directory is removed before returning.
func (c *Client) ProcessParts(ctx context.Context, parts PartSet, output, licenseKey string) (*Document, error) {
	if strings.TrimSpace(output) == "" {
		return nil, services.Wrap(services.ErrValidation, ModeProcess.String(), "validate", "output path required", nil)
	}
	var doc *Document
	err := withStaging(c.stagingRoot, parts, func(dir string) error {
		c.logger.Debug("staged ddp parts",
			logging.String("staging_dir", dir),
			logging.Int("parts", len(parts)),
			logging.Int64("bytes", parts.Size()),
		)
		var runErr error
		doc, runErr = c.run(ctx, Invocation{
			Mode:       ModeProcess,
			Input:      dir,
			Output:     trimOutputPath(output),
			LicenseKey: licenseKey,
		})
		return runErr
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ExtractMetadata runs metadata-only extraction. When destination is non-empty
// the engine writes the document there and it is re-read from disk; otherwise
// the document is parsed from stdout. No audio is produced.
func (c *Client) ExtractMetadata(ctx context.Context, input, licenseKey, destination string) (*Document, error) {
	if strings.TrimSpace(input) == "" {
		return nil, services.Wrap(services.ErrValidation, ModeJSON.String(), "validate", "input path required", nil)
	}
	return c.run(ctx, Invocation{
		Mode:        ModeJSON,
		Input:       input,
		LicenseKey:  licenseKey,
		Destination: destination,
	})
}

func (c *Client) run(ctx context.Context, inv Invocation) (*Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	inv.Binary = c.locator.Path()
	rec := RunRecord{
		ID:          uuid.NewString(),
		Mode:        inv.Mode,
		Binary:      inv.Binary,
		Input:       inv.Input,
		Output:      inv.Output,
		Destination: inv.Destination,
		StartedAt:   time.Now(),
	}
	ctx = services.WithMode(ctx, inv.Mode.String())
	logger := logging.WithContext(ctx, c.logger).With(logging.String(logging.FieldInvocationID, rec.ID))

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if target := inv.lockTarget(); target != "" {
		lock, err := acquireOutputLock(runCtx, c.stagingRoot, target)
		if err != nil {
			lockErr := &StagingError{Op: "lock", Path: target, Err: err}
			return nil, c.finish(ctx, logger, rec, nil, classifyRunError(runCtx, inv, lockErr))
		}
		defer func() {
			if err := lock.release(); err != nil {
				logging.WarnWithContext(logger, "failed to release output lock", "output_lock_release_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "lock file left held until process exit"),
				)
			}
		}()
	}

	logger.Info("running ddp engine",
		logging.String("binary", inv.Binary),
		logging.String("input", inv.Input),
		logging.String("output", firstNonEmpty(inv.Output, inv.Destination)),
	)

	outcome, err := c.exec.Run(runCtx, inv.Binary, inv.Args())
	rec.ExitCode = outcome.ExitCode
	if err != nil {
		return nil, c.finish(ctx, logger, rec, nil, classifyRunError(runCtx, inv, err))
	}
	if outcome.ExitCode != 0 {
		return nil, c.finish(ctx, logger, rec, nil, translateFailure(outcome))
	}

	doc, err := materialize(inv, outcome)
	if err != nil {
		return nil, c.finish(ctx, logger, rec, nil, err)
	}
	return doc, c.finish(ctx, logger, rec, doc, nil)
}

// materialize reads the metadata document for a successful run.
func materialize(inv Invocation, outcome Outcome) (*Document, error) {
	var (
		path string
		data []byte
		err  error
	)
	switch {
	case inv.Mode == ModeProcess:
		path = inv.metadataPath()
		data, err = os.ReadFile(path)
	case inv.Destination != "":
		path = inv.Destination
		data, err = os.ReadFile(path)
	default:
		data = []byte(outcome.Stdout)
	}
	if err != nil {
		return nil, &ContractError{Mode: inv.Mode, Path: path, Err: err}
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, &ContractError{Mode: inv.Mode, Path: path, Err: err}
	}
	return doc, nil
}

func (c *Client) finish(ctx context.Context, logger *slog.Logger, rec RunRecord, doc *Document, err error) error {
	rec.Duration = time.Since(rec.StartedAt)
	rec.TrackCount = doc.TrackCount()
	if err != nil {
		rec.Error = err.Error()
		var engineErr *EngineError
		switch {
		case errors.As(err, &engineErr):
			logging.WarnWithContext(logger, "ddp engine failed", "engine_failed",
				logging.Int("exit_code", engineErr.ExitCode),
				logging.String("message", engineErr.Message),
				logging.String(logging.FieldErrorHint, "check the licence key and the DDP input"),
				logging.String(logging.FieldImpact, "no metadata returned"),
			)
		case errors.Is(err, ErrOutputContract):
			logging.ErrorWithContext(logger, "ddp engine output missing or unreadable", "engine_contract_violation",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the engine version matches this client"),
			)
		default:
			logging.WarnWithContext(logger, "ddp engine run failed", "engine_run_failed",
				logging.Error(err),
				logging.Duration("duration", rec.Duration),
			)
		}
	} else {
		logger.Info("ddp engine finished",
			logging.Int("tracks", rec.TrackCount),
			logging.Duration("duration", rec.Duration),
			logging.String(logging.FieldEventType, "engine_finished"),
		)
	}
	if c.recorder != nil {
		if recErr := c.recorder.Record(ctx, rec); recErr != nil {
			logging.WarnWithContext(logger, "failed to record invocation", "history_record_failed",
				logging.Error(recErr),
				logging.String(logging.FieldImpact, "invocation missing from history"),
			)
		}
	}
	return err
}

// classifyRunError tags launch, timeout, and cancellation failures.
func classifyRunError(ctx context.Context, inv Invocation, err error) error {
	mode := inv.Mode.String()
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, mode, "run", "engine did not finish before the timeout", err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("ddp %s: %w", mode, err)
	case errors.Is(err, ErrStaging), errors.Is(err, ErrOutputContract):
		return err
	default:
		return services.Wrap(services.ErrExternalTool, mode, "launch", inv.Binary, err)
	}
}

func (inv Invocation) metadataPath() string {
	return filepath.Join(inv.Output, MetadataFileName)
}

// lockTarget is the location the engine writes to, or "" when it writes nothing.
func (inv Invocation) lockTarget() string {
	target := inv.Destination
	if inv.Mode == ModeProcess {
		target = inv.Output
	}
	if target == "" {
		return ""
	}
	return filepath.Clean(target)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
