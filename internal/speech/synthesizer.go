package speech

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"walkthrough/internal/config"
	"walkthrough/internal/services"
)

// Result describes a clip a backend has written.
type Result struct {
	// Duration is the playback length read from the WAV header.
	Duration time.Duration
	// Latency is the wall-clock time the backend spent producing the file.
	Latency time.Duration
}

// Synthesizer renders text into a WAV file at outputPath.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, outputPath string) (Result, error)
	// Preflight verifies the backend's model and executable before any
	// synthesis is attempted.
	Preflight(ctx context.Context) error
	// Name identifies the backend in logs.
	Name() string
}

// New selects the backend configured in cfg.Synthesis.Engine.
func New(cfg *config.Config, logger *slog.Logger) (Synthesizer, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "speech", "select backend", "configuration unavailable", nil)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Synthesis.Engine)) {
	case config.EngineCoqui:
		return NewCoqui(cfg.Synthesis.CoquiURL, cfg.Synthesis.Model,
			WithSpeaker(cfg.Synthesis.Speaker),
			WithLanguage(cfg.Synthesis.Language),
			WithTimeout(cfg.SynthesisTimeout()),
			WithCoquiLogger(logger),
		)
	case config.EnginePiper:
		return NewPiper(cfg.Synthesis.PiperPath, cfg.Synthesis.Model, cfg.SynthesisTimeout(), logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "speech", "select backend",
			fmt.Sprintf("unknown engine %q", cfg.Synthesis.Engine), nil)
	}
}

// finishClip reads the duration of the clip a backend just wrote.
func finishClip(outputPath string, started, finished time.Time) (Result, error) {
	duration, err := wavDuration(outputPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrSynthesis, "speech", "read clip", outputPath, err)
	}
	return Result{Duration: duration, Latency: finished.Sub(started)}, nil
}
