// Package script holds the action sequences a run can record.
//
// A Scenario is a declarative YAML description of a tour: a start URL and a
// list of steps, each a Playwright action or a narration call. Targets use a
// short prefix syntax (role:button=Login, label:Username, text:Save, ...)
// that maps onto Playwright's user-facing locators; anything without a
// prefix is a CSS selector. Scenarios are validated when loaded so a typo
// fails before the browser starts.
//
// Scripts written in Go use the tutorial API directly; Demo is the built-in
// example.
package script
