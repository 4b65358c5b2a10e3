// Package config loads, normalizes, and validates DDP SDK configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DDP_LICENSE_KEY and DDP_TOKEN_FILE. The engine executable override
// (DDP_SDK_BIN) is not folded in here; the engine locator reads it on every
// call.
package config
