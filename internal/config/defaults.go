package config

const (
	defaultConfigPath      = "~/.config/untethered/config.toml"
	defaultStateDir        = "~/.local/share/untethered"
	defaultLogDir          = "~/.local/share/untethered/logs"
	defaultZone            = 0
	defaultSleepMultiplier = 1.0
	defaultDisplayPauseMS  = 5000
	defaultPatchPauseMS    = 300
	defaultPatchReads      = 1
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"

	// IgnoreZone disables zone selection for a device.
	IgnoreZone = -1
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Timing: Timing{
			SleepMultiplier: defaultSleepMultiplier,
			DisplayPauseMS:  defaultDisplayPauseMS,
			PatchPauseMS:    defaultPatchPauseMS,
		},
		Measurement: Measurement{
			PatchReads: defaultPatchReads,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
