package speech

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"walkthrough/internal/logging"
	"walkthrough/internal/services"
)

// Clip is one synthesized narration.
type Clip struct {
	Text     string
	Start    time.Time
	Duration time.Duration
	Latency  time.Duration
	Path     string
}

// End is the moment playback of the clip finishes.
func (c Clip) End() time.Time {
	return c.Start.Add(c.Duration)
}

// ClipReserver hands out the file path for a clip starting at a given time.
type ClipReserver interface {
	ClipPath(start time.Time) (string, error)
}

// Adapter binds a backend to the workspace clip naming scheme.
type Adapter struct {
	synth  Synthesizer
	clips  ClipReserver
	logger *slog.Logger
	now    func() time.Time
}

// NewAdapter constructs an adapter writing clips reserved from clips.
func NewAdapter(synth Synthesizer, clips ClipReserver, logger *slog.Logger) *Adapter {
	return &Adapter{
		synth:  synth,
		clips:  clips,
		logger: logging.NewComponentLogger(logger, "speech"),
		now:    time.Now,
	}
}

// WithClock overrides the time source used to stamp clip starts.
func (a *Adapter) WithClock(now func() time.Time) {
	if a != nil && now != nil {
		a.now = now
	}
}

// Synthesize renders text into a new clip. The start timestamp is taken
// before the backend runs so that synthesis latency is part of the clip's
// position on the timeline.
func (a *Adapter) Synthesize(ctx context.Context, text string) (Clip, error) {
	if a == nil || a.synth == nil || a.clips == nil {
		return Clip{}, services.Wrap(services.ErrConfiguration, "speech", "synthesize", "adapter not initialized", nil)
	}
	start := a.now()
	path, err := a.clips.ClipPath(start)
	if err != nil {
		return Clip{}, err
	}

	result, err := a.synth.Synthesize(ctx, text, path)
	if err != nil {
		if errors.Is(err, services.ErrConfiguration) || errors.Is(err, services.ErrSynthesis) {
			return Clip{}, err
		}
		return Clip{}, services.Wrap(services.ErrSynthesis, "speech", a.synth.Name(), "synthesis failed", err)
	}

	clip := Clip{
		Text:     text,
		Start:    start,
		Duration: result.Duration,
		Latency:  result.Latency,
		Path:     path,
	}
	a.logger.Info("narration clip synthesized",
		logging.String("clip", filepath.Base(path)),
		logging.String("backend", a.synth.Name()),
		logging.Duration("duration", clip.Duration),
		logging.Duration("latency", clip.Latency),
		logging.String("text", abbreviate(text, 60)),
		logging.String(logging.FieldEventType, "clip_synthesized"),
	)
	return clip, nil
}

func abbreviate(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
