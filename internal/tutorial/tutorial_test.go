package tutorial

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"walkthrough/internal/narration"
	"walkthrough/internal/services"
	"walkthrough/internal/speech"
)

// pwLocator names the embedded interface so its field does not clash with
// the promoted Locator method.
type pwLocator = playwright.Locator

type fakeLocator struct {
	pwLocator
	expression string
	arg        any
	err        error
}

func (f *fakeLocator) Evaluate(expression string, arg interface{}, _ ...playwright.LocatorEvaluateOptions) (interface{}, error) {
	f.expression = expression
	f.arg = arg
	return nil, f.err
}

type countingSynth struct {
	texts []string
}

func (c *countingSynth) Synthesize(_ context.Context, text string) (speech.Clip, error) {
	c.texts = append(c.texts, text)
	return speech.Clip{Text: text, Start: time.Now(), Duration: time.Millisecond}, nil
}

func TestHighlightAppliesBorder(t *testing.T) {
	tut := New(nil, nil, time.Millisecond, nil)
	loc := &fakeLocator{}
	if err := tut.Highlight(context.Background(), loc, 0); err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if loc.arg != HighlightStyle {
		t.Fatalf("border = %v, want %q", loc.arg, HighlightStyle)
	}
	if loc.expression == "" {
		t.Fatal("no script evaluated")
	}
}

func TestHighlightErrors(t *testing.T) {
	tut := New(nil, nil, 0, nil)
	if err := tut.Highlight(context.Background(), nil, 0); !errors.Is(err, services.ErrActionSequence) {
		t.Fatalf("expected ErrActionSequence for nil locator, got %v", err)
	}
	loc := &fakeLocator{err: errors.New("element detached")}
	if err := tut.Highlight(context.Background(), loc, 0); !errors.Is(err, services.ErrActionSequence) {
		t.Fatalf("expected ErrActionSequence, got %v", err)
	}
}

func TestPauseHonoursCancellation(t *testing.T) {
	tut := New(nil, nil, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tut.Pause(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := tut.Pause(context.Background(), 0); err != nil {
		t.Fatalf("zero pause: %v", err)
	}
}

func TestPauseWithoutPageUsesClockSleep(t *testing.T) {
	clock := narration.NewClock(&countingSynth{}, nil, nil)
	var slept []time.Duration
	clock.WithSleep(func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	})
	tut := New(nil, clock, 0, nil)

	if err := tut.Pause(context.Background(), 1500*time.Millisecond); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if len(slept) != 1 || slept[0] != 1500*time.Millisecond {
		t.Fatalf("slept %v, want [1.5s]", slept)
	}
}

func TestNarrateDelegatesToClock(t *testing.T) {
	synth := &countingSynth{}
	clock := narration.NewClock(synth, narration.NewTranslator(map[string]string{"hello": "hallo"}), nil)
	tut := New(nil, clock, 0, nil)

	if err := tut.Narrate(context.Background(), "hello", false); err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if err := tut.Submit(context.Background(), narration.Request{Text: "bye", Blocking: true}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := tut.WaitForActiveNarration(context.Background()); err != nil {
		t.Fatalf("WaitForActiveNarration: %v", err)
	}
	if len(synth.texts) != 2 || synth.texts[0] != "hallo" || synth.texts[1] != "bye" {
		t.Fatalf("synthesized %v", synth.texts)
	}
	if len(clock.Clips()) != 2 {
		t.Fatalf("clock recorded %d clips", len(clock.Clips()))
	}
}
