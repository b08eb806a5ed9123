package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	stateDir   string
	ffmpeg     string
	model      string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("WALKTHROUGH_COQUI_URL", "")

	binDir := filepath.Join(base, "bin")
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "walkthrough.toml"),
		stateDir:   filepath.Join(base, "state"),
		ffmpeg:     writeStubBinary(t, binDir, "ffmpeg"),
		model:      filepath.Join(base, "voice.onnx"),
	}
	if err := os.WriteFile(env.model, []byte("onnx"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}

	content := fmt.Sprintf(`[paths]
workspace_dir = %q
output_file = %q
state_dir = %q

[synthesis]
engine = "piper"
model = %q
piper_path = %q

[assembly]
ffmpeg_binary = %q
ffprobe_binary = %q

[logging]
level = "error"
`,
		filepath.Join(base, "tmp"),
		filepath.Join(base, "out", "tutorial.mp4"),
		env.stateDir,
		env.model,
		writeStubBinary(t, binDir, "piper"),
		env.ffmpeg,
		writeStubBinary(t, binDir, "ffprobe"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func writeStubBinary(t *testing.T, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
