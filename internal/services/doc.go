// Package services defines shared utilities consumed by the engine client and
// the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp the engine mode and correlation identifiers
//     for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified (engine failure, timeout, bad input) without string matching.
//   - ExitCode, which maps those markers onto CLI process exit statuses.
package services
