// Package logs reads the ddp-sdk log file for the `logs` command.
//
// Tail returns the last N lines (optionally only those mentioning one
// invocation ID) together with a byte offset, and can poll for new lines from
// that offset in follow mode.
package logs
