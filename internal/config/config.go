package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Speech engine identifiers accepted by synthesis.engine.
const (
	EngineCoqui = "coqui"
	EnginePiper = "piper"
)

// Paths contains workspace and output locations.
type Paths struct {
	WorkspaceDir    string `toml:"workspace_dir"`
	OutputFile      string `toml:"output_file"`
	TranslationFile string `toml:"translation_file"`
	StateDir        string `toml:"state_dir"`
}

// Synthesis selects and configures the text-to-speech backend.
type Synthesis struct {
	Engine         string `toml:"engine"`
	Model          string `toml:"model"`
	PiperPath      string `toml:"piper_path"`
	CoquiURL       string `toml:"coqui_url"`
	Speaker        string `toml:"speaker"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Browser contains Playwright launch and recording settings.
type Browser struct {
	Headless        bool `toml:"headless"`
	Install         bool `toml:"install"`
	SlowMoMillis    int  `toml:"slow_mo_ms"`
	ViewportWidth   int  `toml:"viewport_width"`
	ViewportHeight  int  `toml:"viewport_height"`
	HighlightMillis int  `toml:"highlight_ms"`
	ActionTimeoutMS int  `toml:"action_timeout_ms"`
}

// Assembly configures the post-session mux.
type Assembly struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	VideoCodec    string `toml:"video_codec"`
	AudioCodec    string `toml:"audio_codec"`
	RecordingExt  string `toml:"recording_ext"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// History controls the run ledger.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Config encapsulates all configuration values for walkthrough.
//
// Configuration sections by subsystem:
//   - Paths: workspace, output, translation table, and state directory
//   - Synthesis: speech backend selection (coqui server or piper executable)
//   - Browser: Playwright launch options, viewport, and pacing
//   - Assembly: ffmpeg/ffprobe binaries and the output codec pair
//   - Logging: log format and level
//   - History: run ledger toggle
type Config struct {
	Paths     Paths     `toml:"paths"`
	Synthesis Synthesis `toml:"synthesis"`
	Browser   Browser   `toml:"browser"`
	Assembly  Assembly  `toml:"assembly"`
	Logging   Logging   `toml:"logging"`
	History   History   `toml:"history"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/walkthrough/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg, resolvedPath, exists, err := Decode(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := cfg.Finalize(); err != nil {
		return nil, "", false, err
	}

	return cfg, resolvedPath, exists, nil
}

// Decode locates and parses a configuration file on top of the defaults
// without normalizing or validating it. Callers that apply command line
// overrides decode first and call Finalize afterwards.
func Decode(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	return &cfg, resolvedPath, exists, nil
}

// Finalize normalizes and validates the configuration in place.
func (c *Config) Finalize() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("walkthrough.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into besides the
// workspace, which the run orchestrator owns.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Paths.OutputFile)}
	if c.History.Enabled {
		dirs = append(dirs, c.Paths.StateDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the run ledger database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// SynthesisTimeout returns the per-clip synthesis timeout.
func (c *Config) SynthesisTimeout() time.Duration {
	return time.Duration(c.Synthesis.TimeoutSeconds) * time.Second
}

// SlowMo returns the pause Playwright inserts between actions.
func (c *Config) SlowMo() time.Duration {
	return time.Duration(c.Browser.SlowMoMillis) * time.Millisecond
}

// HighlightHold returns how long a highlighted element stays marked before the script continues.
func (c *Config) HighlightHold() time.Duration {
	return time.Duration(c.Browser.HighlightMillis) * time.Millisecond
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() (string, error) {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	encoder.SetIndentTables(true)
	if err := encoder.Encode(c); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return buf.String(), nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
