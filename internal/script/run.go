package script

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"walkthrough/internal/tutorial"
)

// Run performs the scenario against the tutorial page. The first failing
// step stops the scenario.
func (s *Scenario) Run(ctx context.Context, t *tutorial.Tutorial) error {
	if s.URL != "" {
		if _, err := t.Page().Goto(s.URL); err != nil {
			return fmt.Errorf("open %s: %w", s.URL, err)
		}
	}
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.run(ctx, t); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
	}
	return nil
}

func (s Step) run(ctx context.Context, t *tutorial.Tutorial) error {
	page := t.Page()
	timeout := timeoutMillis(s.Timeout)

	switch s.Action {
	case ActionNarrate:
		return t.Narrate(ctx, s.Text, s.Blocking())
	case ActionWaitForNarration:
		return t.WaitForActiveNarration(ctx)
	case ActionPause:
		return t.Pause(ctx, s.Timeout)
	case ActionGoto:
		_, err := page.Goto(s.Value, playwright.PageGotoOptions{Timeout: timeout})
		return err
	case ActionReload:
		_, err := page.Reload(playwright.PageReloadOptions{Timeout: timeout})
		return err
	}

	locator, err := s.locate(page, s.Target)
	if err != nil {
		return err
	}
	switch s.Action {
	case ActionClick:
		return locator.Click(playwright.LocatorClickOptions{Timeout: timeout})
	case ActionFill:
		return locator.Fill(s.Value, playwright.LocatorFillOptions{Timeout: timeout})
	case ActionCheck:
		return locator.Check(playwright.LocatorCheckOptions{Timeout: timeout})
	case ActionPress:
		return locator.Press(s.Value, playwright.LocatorPressOptions{Timeout: timeout})
	case ActionHighlight:
		return t.Highlight(ctx, locator, s.Timeout)
	case ActionDrag:
		drop, err := ParseTarget(s.Value)
		if err != nil {
			return err
		}
		return locator.DragTo(drop.Locate(page, s.Exact), playwright.LocatorDragToOptions{Timeout: timeout})
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
}

func (s Step) locate(page playwright.Page, raw string) (playwright.Locator, error) {
	target, err := ParseTarget(raw)
	if err != nil {
		return nil, err
	}
	locator := target.Locate(page, s.Exact)
	if s.Nth != nil {
		locator = locator.Nth(*s.Nth)
	}
	return locator, nil
}

func timeoutMillis(d time.Duration) *float64 {
	if d <= 0 {
		return nil
	}
	return playwright.Float(float64(d.Milliseconds()))
}
