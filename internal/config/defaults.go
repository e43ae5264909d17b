package config

const (
	defaultConfigPath       = "~/.config/auditdesk/config.toml"
	defaultLogDir           = "~/.local/share/auditdesk/logs"
	defaultStateDir         = "~/.local/state/auditdesk"
	defaultReportDir        = "~/Documents/auditdesk"
	defaultAPIBind          = "127.0.0.1:7489"
	defaultReportTitle      = "Audit Report"
	defaultReportCreator    = "auditdesk"
	defaultTailDecode       = DecodeStrict
	defaultTailPollInterval = 250
	defaultTailLines        = 20
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultNotifyTimeout    = 10
)

// Decode policies accepted by tail.decode.
const (
	DecodeStrict  = "strict"
	DecodeReplace = "replace"
)

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
			ReportDir: defaultReportDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Report: Report{
			Title:   defaultReportTitle,
			Creator: defaultReportCreator,
		},
		Tail: Tail{
			Decode:         defaultTailDecode,
			PollIntervalMS: defaultTailPollInterval,
			DefaultLines:   defaultTailLines,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			OnReport:       true,
			OnFailure:      true,
		},
	}
}
