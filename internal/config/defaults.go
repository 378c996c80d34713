package config

const (
	defaultBackend          = "auto"
	defaultFPS              = 15
	maxFPS                  = 60
	defaultFirstFrameSecs   = 8
	defaultDelayPolicy      = DelayPolicyMeasured
	defaultRecordDelayMS    = 40
	defaultClipDelayMS      = 70
	defaultCountdown        = 3
	defaultSessionPath      = "~/clip.gif"
	defaultSessionSeconds   = 5
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
	defaultConfigPathString = "~/.config/clipper/config.toml"
	projectConfigName       = "clipper.toml"
)

// Delay policies accepted by encode.delay_policy.
const (
	DelayPolicyMeasured = "measured"
	DelayPolicyFixed    = "fixed"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Capture: Capture{
			Backend:                  defaultBackend,
			FPS:                      defaultFPS,
			Downsample:               true,
			FirstFrameTimeoutSeconds: defaultFirstFrameSecs,
		},
		Encode: Encode{
			DelayPolicy:   defaultDelayPolicy,
			RecordDelayMS: defaultRecordDelayMS,
			ClipDelayMS:   defaultClipDelayMS,
		},
		Session: Session{
			Countdown:      defaultCountdown,
			DefaultPath:    defaultSessionPath,
			DefaultSeconds: defaultSessionSeconds,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
