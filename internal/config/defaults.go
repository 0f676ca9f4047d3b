package config

const (
	defaultConfigPath         = "~/.config/regenq/config.toml"
	projectConfigName         = "regenq.toml"
	defaultDataDir            = "~/.local/share/regenq"
	defaultLogDir             = "~/.local/share/regenq/logs"
	defaultAPIBind            = "127.0.0.1:7488"
	defaultCMSTimeoutSeconds  = 15
	defaultTriggerMethod      = "POST"
	defaultTriggerTimeout     = 10
	defaultPollIntervalMillis = 1000
	defaultAdminPageSize      = 25
	defaultAdminMaxPageSize   = 100
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	minPollIntervalMillis     = 50
	envToken                  = "REGENQ_TOKEN"
	envCMSURL                 = "REGENQ_CMS_URL"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		CMS: CMS{
			TimeoutSeconds: defaultCMSTimeoutSeconds,
		},
		Trigger: Trigger{
			Method:         defaultTriggerMethod,
			TimeoutSeconds: defaultTriggerTimeout,
		},
		Poller: Poller{
			IntervalMillis: defaultPollIntervalMillis,
		},
		Admin: Admin{
			PageSize:    defaultAdminPageSize,
			MaxPageSize: defaultAdminMaxPageSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
