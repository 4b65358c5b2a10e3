package ddp

import (
	"os"
	"strings"
)

const (
	// DefaultBinary is resolved through PATH when no override is present.
	DefaultBinary = "ddp"
	// BinaryEnv overrides the engine executable location.
	BinaryEnv = "DDP_SDK_BIN"
)

// Locator resolves the engine executable. The environment override is read on
// every call to Path; Configured is used when the environment is silent.
type Locator struct {
	// Lookup reads the environment. Nil disables the environment override.
	Lookup func(string) (string, bool)
	// Configured is the executable from configuration, if any.
	Configured string
}

// LocatorFromEnv returns a Locator that honours DDP_SDK_BIN, then configured,
// then DefaultBinary.
func LocatorFromEnv(configured string) Locator {
	return Locator{Lookup: os.LookupEnv, Configured: configured}
}

// StaticLocator always resolves to binary (or DefaultBinary when blank).
func StaticLocator(binary string) Locator {
	return Locator{Configured: binary}
}

// Path returns the executable path or command name. It performs no existence
// check; a missing engine surfaces as a launch failure.
func (l Locator) Path() string {
	if l.Lookup != nil {
		if value, ok := l.Lookup(BinaryEnv); ok {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	if configured := strings.TrimSpace(l.Configured); configured != "" {
		return configured
	}
	return DefaultBinary
}
