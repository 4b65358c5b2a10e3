// Package history persists a ledger of DDP engine invocations in SQLite.
//
// Store implements ddp.Recorder so a Client can record every run. Records
// never contain the licence key. The ledger backs the `history` CLI command.
package history
