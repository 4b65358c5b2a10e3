// Package preflight provides readiness checks for the engine executable,
// the licence key, and the filesystem paths the SDK writes to.
//
// The CLI "doctor" command runs RunAll and renders each Result. Checks never
// launch the engine.
package preflight
