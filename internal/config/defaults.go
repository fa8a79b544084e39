package config

const (
	defaultDataDir           = "~/.local/share/pressline"
	defaultLogDir            = "~/.local/share/pressline/logs"
	defaultServerBind        = "127.0.0.1:7319"
	defaultRecomputeSchedule = "0 3 * * *"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Learning: Learning{
			RecomputeSchedule: defaultRecomputeSchedule,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
