package preflight

import (
	"ddpsdk/internal/config"
	"ddpsdk/internal/ddp"
	"ddpsdk/internal/staging"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check that applies to cfg, in display order.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	root := staging.Root(cfg.Paths.StagingDir)

	results := []Result{
		CheckEngine(ddp.LocatorFromEnv(cfg.Engine.Binary)),
		CheckDirectoryAccess("Staging directory", root),
		CheckFreeSpace("Staging free space", root, MinFreeBytes),
		CheckLicenseKey(cfg.LicenseKey()),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.History.Enabled {
		results = append(results, CheckHistory(cfg.History.Path))
	}
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
