package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"walkthrough/internal/logging"
	"walkthrough/internal/services"
)

// commandRunner executes name with args, feeding stdin to the process.
type commandRunner func(ctx context.Context, stdin io.Reader, name string, args ...string) error

// PiperSynthesizer runs the Piper executable once per clip.
type PiperSynthesizer struct {
	executable string
	model      string
	timeout    time.Duration
	logger     *slog.Logger
	run        commandRunner
	now        func() time.Time
}

// NewPiper constructs a Piper backend. timeout bounds a single invocation; zero
// disables the bound.
func NewPiper(executable, model string, timeout time.Duration, logger *slog.Logger) *PiperSynthesizer {
	return &PiperSynthesizer{
		executable: strings.TrimSpace(executable),
		model:      strings.TrimSpace(model),
		timeout:    timeout,
		logger:     logging.NewComponentLogger(logger, "piper"),
		run:        defaultCommandRunner,
		now:        time.Now,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (p *PiperSynthesizer) WithCommandRunner(r commandRunner) {
	if p != nil && r != nil {
		p.run = r
	}
}

// Name reports the backend identifier.
func (p *PiperSynthesizer) Name() string { return "piper" }

// Preflight checks that the voice model exists and the executable can be run.
func (p *PiperSynthesizer) Preflight(context.Context) error {
	if p.model == "" {
		return services.Wrap(services.ErrConfiguration, "speech", "piper preflight", "model path is empty", nil)
	}
	if info, err := os.Stat(p.model); err != nil {
		return services.Wrap(services.ErrConfiguration, "speech", "piper preflight",
			fmt.Sprintf("model %q not found", p.model), err)
	} else if info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "speech", "piper preflight",
			fmt.Sprintf("model %q is a directory", p.model), nil)
	}
	if p.executable == "" {
		return services.Wrap(services.ErrConfiguration, "speech", "piper preflight", "executable path is empty", nil)
	}
	path, err := exec.LookPath(p.executable)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "speech", "piper preflight",
			fmt.Sprintf("executable %q not found", p.executable), err)
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		return services.Wrap(services.ErrConfiguration, "speech", "piper preflight",
			fmt.Sprintf("executable %q is not runnable", path), err)
	}
	return nil
}

// Synthesize writes text to outputPath via Piper.
func (p *PiperSynthesizer) Synthesize(ctx context.Context, text, outputPath string) (Result, error) {
	if err := p.Preflight(ctx); err != nil {
		return Result{}, err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	args := []string{"--model", p.model, "--output_file", outputPath}
	p.logger.Debug("invoking piper",
		logging.String("executable", p.executable),
		logging.String("args", strings.Join(args, " ")),
	)

	started := p.now()
	if err := p.run(ctx, strings.NewReader(text), p.executable, args...); err != nil {
		return Result{}, services.Wrap(services.ErrSynthesis, "speech", "piper", "synthesis failed", err)
	}
	return finishClip(outputPath, started, p.now())
}

func defaultCommandRunner(ctx context.Context, stdin io.Reader, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stdin = stdin
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(output.String()))
	}
	return nil
}
