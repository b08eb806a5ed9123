package config

const (
	defaultWorkspaceDir      = "./tmp"
	defaultOutputFile        = "tutorial.mp4"
	defaultStateDir          = "~/.local/share/walkthrough"
	defaultEngine            = EngineCoqui
	defaultPiperPath         = "./piper/piper"
	defaultCoquiURL          = "http://localhost:5002"
	defaultSynthesisTimeout  = 120
	defaultSlowMoMillis      = 1000
	defaultViewportWidth     = 1920
	defaultViewportHeight    = 1080
	defaultHighlightMillis   = 3000
	defaultActionTimeoutMS   = 30000
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultVideoCodec        = "libx264"
	defaultAudioCodec        = "aac"
	defaultRecordingExt      = ".webm"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultHistoryEnabled    = true
	defaultBrowserHeadless   = false
	defaultBrowserInstall    = false
	defaultSynthesisLanguage = ""
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			OutputFile:   defaultOutputFile,
			StateDir:     defaultStateDir,
		},
		Synthesis: Synthesis{
			Engine:         defaultEngine,
			PiperPath:      defaultPiperPath,
			CoquiURL:       defaultCoquiURL,
			Language:       defaultSynthesisLanguage,
			TimeoutSeconds: defaultSynthesisTimeout,
		},
		Browser: Browser{
			Headless:        defaultBrowserHeadless,
			Install:         defaultBrowserInstall,
			SlowMoMillis:    defaultSlowMoMillis,
			ViewportWidth:   defaultViewportWidth,
			ViewportHeight:  defaultViewportHeight,
			HighlightMillis: defaultHighlightMillis,
			ActionTimeoutMS: defaultActionTimeoutMS,
		},
		Assembly: Assembly{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			VideoCodec:    defaultVideoCodec,
			AudioCodec:    defaultAudioCodec,
			RecordingExt:  defaultRecordingExt,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
	}
}
