package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"walkthrough/internal/config"
	"walkthrough/internal/services"
)

func TestRunListScripts(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"run", "--list-scripts"}, env.configPath)
	if err != nil {
		t.Fatalf("run --list-scripts: %v", err)
	}
	requireContains(t, out, "demo")
}

func TestRunUnknownScriptIsConfigurationError(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"run", "nope"}, env.configPath)
	if services.ExitCode(err) != services.ExitConfiguration {
		t.Fatalf("expected configuration exit code, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(env.baseDir, "tmp")); !os.IsNotExist(statErr) {
		t.Fatal("workspace should not be created for an unknown script")
	}
}

func TestRunMissingPiperModelFailsBeforeRecording(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(env.baseDir, "absent.onnx")
	_, _, err := runCLI(t, []string{"run", "demo", "-m", missing}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(env.baseDir, "tmp")); !os.IsNotExist(statErr) {
		t.Fatal("workspace should not be created when the model is missing")
	}
}

func TestApplyRunOverrides(t *testing.T) {
	var configFlag string
	cmd := newRunCommand(newCommandContext(&configFlag))
	if err := cmd.ParseFlags([]string{"-v", "piper", "-p", "/opt/piper", "-m", "voice.onnx", "-o", "out.mp4", "-t", "de.json", "--tmp-dir", "scratch", "-s", "250"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	var flags runFlags
	flags.engine, _ = cmd.Flags().GetString("voice-engine")
	flags.piperPath, _ = cmd.Flags().GetString("piper")
	flags.model, _ = cmd.Flags().GetString("model")
	flags.output, _ = cmd.Flags().GetString("output")
	flags.translationFile, _ = cmd.Flags().GetString("translation-file")
	flags.tmpDir, _ = cmd.Flags().GetString("tmp-dir")
	flags.slowMo, _ = cmd.Flags().GetInt("slowmo")

	cfg := config.Default()
	cfg.Browser.Headless = true
	applyRunOverrides(cmd, flags, &cfg)

	if cfg.Synthesis.Engine != "piper" || cfg.Synthesis.PiperPath != "/opt/piper" || cfg.Synthesis.Model != "voice.onnx" {
		t.Fatalf("synthesis overrides not applied: %+v", cfg.Synthesis)
	}
	if cfg.Paths.OutputFile != "out.mp4" || cfg.Paths.TranslationFile != "de.json" || cfg.Paths.WorkspaceDir != "scratch" {
		t.Fatalf("path overrides not applied: %+v", cfg.Paths)
	}
	if cfg.Browser.SlowMoMillis != 250 {
		t.Fatalf("slow mo = %d, want 250", cfg.Browser.SlowMoMillis)
	}
	if !cfg.Browser.Headless {
		t.Fatal("unchanged flags must not override config values")
	}
}

func TestResolveScript(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "login.yaml")
	scenario := "url: https://example.test/\nsteps:\n  - action: narrate\n    text: Hello.\n"
	if err := os.WriteFile(scenarioPath, []byte(scenario), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := resolveScript(runFlags{}, []string{scenarioPath})
	if err != nil {
		t.Fatalf("resolve scenario: %v", err)
	}
	if s.Name != "login" || s.Run == nil {
		t.Fatalf("unexpected scenario script: %+v", s.Name)
	}

	s, err = resolveScript(runFlags{}, nil)
	if err != nil || s.Name != "demo" {
		t.Fatalf("expected default demo script, got %q, %v", s.Name, err)
	}

	_, err = resolveScript(runFlags{scriptName: "demo", scenario: scenarioPath}, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}
