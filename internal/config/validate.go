package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable. Settings only a recording
// needs, such as the voice model, are checked by ValidateRun instead so that
// the side commands keep working while they are unset.
func (c *Config) Validate() error {
	if err := c.validateSynthesis(); err != nil {
		return err
	}
	if err := c.validateBrowser(); err != nil {
		return err
	}
	if err := c.validateAssembly(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSynthesis() error {
	switch c.Synthesis.Engine {
	case EngineCoqui, EnginePiper:
	default:
		return fmt.Errorf("synthesis.engine: unsupported value %q (expected %q or %q)", c.Synthesis.Engine, EngineCoqui, EnginePiper)
	}
	if c.Synthesis.Language != "" {
		if _, err := language.Parse(c.Synthesis.Language); err != nil {
			return fmt.Errorf("synthesis.language: %q is not a valid BCP 47 tag: %w", c.Synthesis.Language, err)
		}
	}
	if c.Synthesis.Engine == EngineCoqui {
		parsed, err := url.Parse(c.Synthesis.CoquiURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("synthesis.coqui_url: %q must be an absolute http(s) URL", c.Synthesis.CoquiURL)
		}
	}
	return nil
}

// ValidateRun checks the settings a recording run needs on top of Validate.
func (c *Config) ValidateRun() error {
	if c.Synthesis.Model == "" {
		return errors.New("synthesis.model is required (a piper .onnx path or a coqui model name such as tts_models/de/thorsten/tacotron2-DDC)")
	}
	return nil
}

func (c *Config) validateBrowser() error {
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return errors.New("browser.viewport_width and browser.viewport_height must be positive")
	}
	return nil
}

func (c *Config) validateAssembly() error {
	if strings.ContainsAny(c.Assembly.RecordingExt, `/\`) {
		return fmt.Errorf("assembly.recording_ext: %q must be a file extension", c.Assembly.RecordingExt)
	}
	if strings.EqualFold(c.Assembly.RecordingExt, ".wav") {
		return errors.New("assembly.recording_ext must differ from the narration clip extension .wav")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
