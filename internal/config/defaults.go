package config

const (
	defaultConfigPath   = "~/.config/ddp-sdk/config.toml"
	projectConfigName   = "ddp-sdk.toml"
	defaultLogDir       = "~/.local/share/ddp-sdk/logs"
	defaultHistoryPath  = "~/.local/share/ddp-sdk/history.db"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	licenseKeyEnv       = "DDP_LICENSE_KEY"
	licenseKeyFileEnv   = "DDP_TOKEN_FILE"
	defaultHistoryOn    = true
	defaultTimeoutUnset = 0
)

// Default returns a Config populated with repository defaults. The staging
// directory is left empty so in-memory parts are staged under os.TempDir.
func Default() Config {
	return Config{
		Engine: Engine{
			TimeoutSeconds: defaultTimeoutUnset,
		},
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		History: History{
			Enabled: defaultHistoryOn,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
