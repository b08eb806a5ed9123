// Package tutorial is the surface action scripts are written against: the
// recorded page plus narration and highlighting helpers.
package tutorial

import (
	"context"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"walkthrough/internal/logging"
	"walkthrough/internal/narration"
	"walkthrough/internal/services"
)

// HighlightStyle is the inline border applied by Highlight.
const HighlightStyle = "2px solid red"

const highlightScript = `(el, border) => { el.style.border = border; }`

// Tutorial wraps the recorded page with narration-aware helpers.
type Tutorial struct {
	page          playwright.Page
	clock         *narration.Clock
	highlightHold time.Duration
	logger        *slog.Logger
}

// New constructs a tutorial over page. highlightHold is the default time a
// highlighted element stays marked before the script continues.
func New(page playwright.Page, clock *narration.Clock, highlightHold time.Duration, logger *slog.Logger) *Tutorial {
	return &Tutorial{
		page:          page,
		clock:         clock,
		highlightHold: highlightHold,
		logger:        logging.NewComponentLogger(logger, "tutorial"),
	}
}

// Page returns the page being recorded.
func (t *Tutorial) Page() playwright.Page {
	return t.page
}

// Narrate speaks text after any active narration. With blocking set it
// returns once the clip has roughly finished playing.
func (t *Tutorial) Narrate(ctx context.Context, text string, blocking bool) error {
	_, err := t.clock.Narrate(ctx, text, blocking)
	return err
}

// Submit narrates a prepared request.
func (t *Tutorial) Submit(ctx context.Context, req narration.Request) error {
	_, err := t.clock.Submit(ctx, req)
	return err
}

// WaitForActiveNarration holds the script until the last clip has finished.
func (t *Tutorial) WaitForActiveNarration(ctx context.Context) error {
	return t.clock.WaitForActiveNarration(ctx)
}

// Highlight outlines the element matched by locator and holds for hold, or
// for the configured default when hold is zero.
func (t *Tutorial) Highlight(ctx context.Context, locator playwright.Locator, hold time.Duration) error {
	if locator == nil {
		return services.Wrap(services.ErrActionSequence, "tutorial", "highlight", "nil locator", nil)
	}
	if _, err := locator.Evaluate(highlightScript, HighlightStyle); err != nil {
		return services.Wrap(services.ErrActionSequence, "tutorial", "highlight", "", err)
	}
	if hold <= 0 {
		hold = t.highlightHold
	}
	return t.Pause(ctx, hold)
}

// Pause lets the recording run for d without any action.
func (t *Tutorial) Pause(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	if t.page == nil {
		return t.clock.Sleep(ctx, d)
	}
	t.page.WaitForTimeout(float64(d.Milliseconds()))
	return ctx.Err()
}
