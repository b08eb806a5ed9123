package narration

import (
	"context"
	"log/slog"
	"time"

	"walkthrough/internal/logging"
	"walkthrough/internal/speech"
)

// Request is one narration call.
type Request struct {
	Text     string
	Blocking bool
}

// ClipSynthesizer produces timed clips.
type ClipSynthesizer interface {
	Synthesize(ctx context.Context, text string) (speech.Clip, error)
}

// SleepFunc suspends the caller for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Clock tracks the end of the most recent narration clip for one run.
type Clock struct {
	synth       ClipSynthesizer
	translator  *Translator
	logger      *slog.Logger
	now         func() time.Time
	sleep       SleepFunc
	lastClipEnd time.Time
	clips       []speech.Clip
}

// NewClock constructs a clock with no active narration. translator may be nil.
func NewClock(synth ClipSynthesizer, translator *Translator, logger *slog.Logger) *Clock {
	return &Clock{
		synth:      synth,
		translator: translator,
		logger:     logging.NewComponentLogger(logger, "narration"),
		now:        time.Now,
		sleep:      Sleep,
	}
}

// WithClock overrides the time source.
func (c *Clock) WithClock(now func() time.Time) {
	if c != nil && now != nil {
		c.now = now
	}
}

// WithSleep overrides how the clock suspends the caller.
func (c *Clock) WithSleep(sleep SleepFunc) {
	if c != nil && sleep != nil {
		c.sleep = sleep
	}
}

// LastClipEnd reports when the most recent clip stops playing. The zero time
// means nothing has been narrated yet.
func (c *Clock) LastClipEnd() time.Time {
	return c.lastClipEnd
}

// Remaining is how long the active clip keeps playing, or zero when none is.
func (c *Clock) Remaining() time.Duration {
	if c.lastClipEnd.IsZero() {
		return 0
	}
	if remaining := c.lastClipEnd.Sub(c.now()); remaining > 0 {
		return remaining
	}
	return 0
}

// WaitForActiveNarration blocks until the most recent clip has finished
// playing. It returns immediately when no clip is active.
func (c *Clock) WaitForActiveNarration(ctx context.Context) error {
	remaining := c.Remaining()
	if remaining <= 0 {
		return nil
	}
	c.logger.Debug("waiting for active narration", logging.Duration("remaining", remaining))
	return c.sleep(ctx, remaining)
}

// Submit narrates req.
func (c *Clock) Submit(ctx context.Context, req Request) (speech.Clip, error) {
	return c.Narrate(ctx, req.Text, req.Blocking)
}

// Narrate speaks text once any active clip has finished. With blocking set
// the caller is held until the new clip has (approximately) finished too;
// the synthesis latency already spent counts toward that wait.
func (c *Clock) Narrate(ctx context.Context, text string, blocking bool) (speech.Clip, error) {
	if err := c.WaitForActiveNarration(ctx); err != nil {
		return speech.Clip{}, err
	}

	spoken := c.translator.Lookup(text)
	clip, err := c.synth.Synthesize(ctx, spoken)
	if err != nil {
		return speech.Clip{}, err
	}
	c.lastClipEnd = clip.End()
	c.clips = append(c.clips, clip)

	if !blocking {
		return clip, nil
	}
	wait := clip.Duration - clip.Latency
	if wait <= 0 {
		return clip, nil
	}
	if err := c.sleep(ctx, wait); err != nil {
		return clip, err
	}
	return clip, nil
}

// Clips returns every clip narrated so far, in order.
func (c *Clock) Clips() []speech.Clip {
	out := make([]speech.Clip, len(c.clips))
	copy(out, c.clips)
	return out
}

// Sleep suspends the caller through the clock's sleep hook. A nil clock
// falls back to the package Sleep.
func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	if c == nil || c.sleep == nil {
		return Sleep(ctx, d)
	}
	return c.sleep(ctx, d)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
