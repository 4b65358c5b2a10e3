package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ddpsdk/internal/config"
	"ddpsdk/internal/ddp"
	"ddpsdk/internal/history"
	"ddpsdk/internal/logging"
	"ddpsdk/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "", "load config", "", err)
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
			if err := cfg.Validate(); err != nil {
				c.configErr = services.Wrap(services.ErrConfiguration, "", "log level", "", err)
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "", "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// JSONMode reports whether --json was given.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "logging", "", err)
	}
	return logger, nil
}

// newClient builds a ddp client from configuration. The returned close func
// releases the history ledger.
func (c *commandContext) newClient(cmd *cobra.Command) (*ddp.Client, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.logger(cmd)
	if err != nil {
		return nil, nil, err
	}

	opts := []ddp.Option{
		ddp.WithLocator(ddp.LocatorFromEnv(cfg.Engine.Binary)),
		ddp.WithLogger(logger),
		ddp.WithStagingRoot(cfg.Paths.StagingDir),
		ddp.WithTimeout(cfg.EngineTimeout()),
	}
	closeFn := func() {}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logging.WarnWithContext(logger, "history ledger unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "this invocation will not be recorded"),
			)
		} else {
			opts = append(opts, ddp.WithRecorder(store))
			closeFn = func() { _ = store.Close() }
		}
	}
	return ddp.New(opts...), closeFn, nil
}

// licenseKey returns the --license-key flag value or the configured key.
func (c *commandContext) licenseKey(flagValue string) (string, error) {
	if key := strings.TrimSpace(flagValue); key != "" {
		return key, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	key, err := cfg.LicenseKey()
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "", "licence key", "", err)
	}
	if key == "" {
		return "", services.Wrap(services.ErrConfiguration, "", "licence key",
			"no licence key configured; pass --license-key, set DDP_LICENSE_KEY, or set engine.license_key", nil)
	}
	return key, nil
}

func (c *commandContext) openHistory() (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
