// Package ddp drives the external DDP engine (`ddp`) that turns a Disc
// Description Protocol image into a metadata document and one WAV file per
// track.
//
// The engine is opaque: it parses the image, validates the licence key, and
// decodes audio. This package only
//   - resolves the engine executable (Locator),
//   - stages in-memory input parts into a unique ddp-in-* directory,
//   - runs the engine in process or json mode and captures its output,
//   - parses the resulting metadata.json (or stdout) into a Document,
//   - turns non-zero exits into *EngineError.
//
// Every Client call is synchronous and independent. Staging directories are
// unique per call and removed on every exit path, and calls that share an
// output location are serialized by an advisory file lock.
package ddp
