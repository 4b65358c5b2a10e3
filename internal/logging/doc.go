// Package logging assembles structured slog loggers and formatting helpers used
// by the engine client and the CLI.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so invocation code can tag log
// lines with the engine mode and correlation IDs. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
