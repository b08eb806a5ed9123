package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSynthesis(); err != nil {
		return err
	}
	c.normalizeBrowser()
	c.normalizeAssembly()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = defaultWorkspaceDir
	}
	if c.Paths.WorkspaceDir, err = expandPath(strings.TrimSpace(c.Paths.WorkspaceDir)); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputFile) == "" {
		c.Paths.OutputFile = defaultOutputFile
	}
	if c.Paths.OutputFile, err = expandPath(strings.TrimSpace(c.Paths.OutputFile)); err != nil {
		return fmt.Errorf("paths.output_file: %w", err)
	}
	if c.Paths.TranslationFile, err = expandPath(strings.TrimSpace(c.Paths.TranslationFile)); err != nil {
		return fmt.Errorf("paths.translation_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSynthesis() error {
	var err error
	c.Synthesis.Engine = strings.ToLower(strings.TrimSpace(c.Synthesis.Engine))
	if c.Synthesis.Engine == "" {
		c.Synthesis.Engine = defaultEngine
	}
	c.Synthesis.Model = strings.TrimSpace(c.Synthesis.Model)
	if c.Synthesis.Engine == EnginePiper || looksLikePath(c.Synthesis.Model) {
		if c.Synthesis.Model, err = expandPath(c.Synthesis.Model); err != nil {
			return fmt.Errorf("synthesis.model: %w", err)
		}
	}
	if strings.TrimSpace(c.Synthesis.PiperPath) == "" {
		c.Synthesis.PiperPath = defaultPiperPath
	}
	if c.Synthesis.PiperPath, err = expandPath(strings.TrimSpace(c.Synthesis.PiperPath)); err != nil {
		return fmt.Errorf("synthesis.piper_path: %w", err)
	}
	if value, ok := os.LookupEnv("WALKTHROUGH_COQUI_URL"); ok && strings.TrimSpace(value) != "" {
		c.Synthesis.CoquiURL = value
	}
	c.Synthesis.CoquiURL = strings.TrimRight(strings.TrimSpace(c.Synthesis.CoquiURL), "/")
	if c.Synthesis.CoquiURL == "" {
		c.Synthesis.CoquiURL = defaultCoquiURL
	}
	c.Synthesis.Speaker = strings.TrimSpace(c.Synthesis.Speaker)
	c.Synthesis.Language = strings.TrimSpace(c.Synthesis.Language)
	if c.Synthesis.TimeoutSeconds <= 0 {
		c.Synthesis.TimeoutSeconds = defaultSynthesisTimeout
	}
	return nil
}

func (c *Config) normalizeBrowser() {
	if c.Browser.SlowMoMillis < 0 {
		c.Browser.SlowMoMillis = 0
	}
	if c.Browser.ViewportWidth <= 0 {
		c.Browser.ViewportWidth = defaultViewportWidth
	}
	if c.Browser.ViewportHeight <= 0 {
		c.Browser.ViewportHeight = defaultViewportHeight
	}
	if c.Browser.HighlightMillis < 0 {
		c.Browser.HighlightMillis = defaultHighlightMillis
	}
	if c.Browser.ActionTimeoutMS <= 0 {
		c.Browser.ActionTimeoutMS = defaultActionTimeoutMS
	}
}

func (c *Config) normalizeAssembly() {
	c.Assembly.FFmpegBinary = strings.TrimSpace(c.Assembly.FFmpegBinary)
	if c.Assembly.FFmpegBinary == "" {
		c.Assembly.FFmpegBinary = defaultFFmpegBinary
	}
	c.Assembly.FFprobeBinary = strings.TrimSpace(c.Assembly.FFprobeBinary)
	if c.Assembly.FFprobeBinary == "" {
		c.Assembly.FFprobeBinary = defaultFFprobeBinary
	}
	c.Assembly.VideoCodec = strings.TrimSpace(c.Assembly.VideoCodec)
	if c.Assembly.VideoCodec == "" {
		c.Assembly.VideoCodec = defaultVideoCodec
	}
	c.Assembly.AudioCodec = strings.TrimSpace(c.Assembly.AudioCodec)
	if c.Assembly.AudioCodec == "" {
		c.Assembly.AudioCodec = defaultAudioCodec
	}
	ext := strings.ToLower(strings.TrimSpace(c.Assembly.RecordingExt))
	if ext == "" {
		ext = defaultRecordingExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Assembly.RecordingExt = ext
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// looksLikePath reports whether a coqui model value refers to the filesystem
// rather than a catalogue name such as tts_models/de/thorsten/vits.
func looksLikePath(value string) bool {
	return strings.HasPrefix(value, "/") ||
		strings.HasPrefix(value, "./") ||
		strings.HasPrefix(value, "../") ||
		strings.HasPrefix(value, "~")
}
