package script

import (
	"context"
	"fmt"
	"sort"

	"github.com/playwright-community/playwright-go"

	"walkthrough/internal/tutorial"
)

// Func is a script written in Go against the tutorial API.
type Func func(ctx context.Context, t *tutorial.Tutorial) error

var builtins = map[string]Func{
	"demo": Demo,
}

// Builtin looks up a script compiled into the binary.
func Builtin(name string) (Func, bool) {
	fn, ok := builtins[name]
	return fn, ok
}

// BuiltinNames lists the compiled-in scripts.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Demo tours the Playwright documentation landing page.
func Demo(ctx context.Context, t *tutorial.Tutorial) error {
	page := t.Page()
	if _, err := page.Goto("https://playwright.dev/"); err != nil {
		return fmt.Errorf("open landing page: %w", err)
	}
	if err := t.Narrate(ctx, "Welcome! This short tour shows how a narrated walkthrough is recorded.", true); err != nil {
		return err
	}

	getStarted := page.GetByRole("link", playwright.PageGetByRoleOptions{Name: "Get started"})
	if err := t.Narrate(ctx, "Every tour starts somewhere. Here, it is the Get started link.", false); err != nil {
		return err
	}
	if err := t.Highlight(ctx, getStarted, 0); err != nil {
		return err
	}
	if err := t.WaitForActiveNarration(ctx); err != nil {
		return err
	}
	if err := getStarted.Click(); err != nil {
		return fmt.Errorf("click get started: %w", err)
	}

	if err := t.Narrate(ctx, "The installation guide opens, and the recording follows along.", true); err != nil {
		return err
	}
	search := page.GetByRole("button", playwright.PageGetByRoleOptions{Name: "Search"})
	if err := search.Click(); err != nil {
		return fmt.Errorf("open search: %w", err)
	}
	if err := page.GetByPlaceholder("Search docs").Fill("locators"); err != nil {
		return fmt.Errorf("type search query: %w", err)
	}
	if err := t.Narrate(ctx, "Searching the documentation works like any other page interaction.", true); err != nil {
		return err
	}
	if err := page.Keyboard().Press("Escape"); err != nil {
		return fmt.Errorf("close search: %w", err)
	}
	return t.Narrate(ctx, "That is the whole tour. Thanks for watching.", true)
}
