// Package main hosts the ddp-sdk CLI entrypoint and command graph.
//
// The Cobra command tree wraps the internal/ddp client: full processing of a
// DDP directory or in-memory part set, metadata-only extraction, output
// verification, and housekeeping for the history ledger and staging root.
// Configuration, logging, and client construction are resolved once in
// commandContext so subcommands only deal with presentation.
package main
