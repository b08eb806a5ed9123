package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Target kinds.
const (
	TargetCSS         = "css"
	TargetRole        = "role"
	TargetLabel       = "label"
	TargetPlaceholder = "placeholder"
	TargetText        = "text"
	TargetTitle       = "title"
)

// Target is a parsed element selector.
type Target struct {
	Kind  string
	Role  string
	Value string
}

// ParseTarget interprets the prefix syntax used by scenario steps:
//
//	role:button=Login   label:Username   placeholder:Option
//	text:Save           title:Close      #login-form input
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, errors.New("empty target")
	}
	prefix, rest, found := strings.Cut(raw, ":")
	if !found {
		return Target{Kind: TargetCSS, Value: raw}, nil
	}
	switch prefix {
	case TargetRole:
		role, name, _ := strings.Cut(rest, "=")
		role = strings.TrimSpace(role)
		if role == "" {
			return Target{}, fmt.Errorf("target %q: role is empty", raw)
		}
		return Target{Kind: TargetRole, Role: role, Value: name}, nil
	case TargetLabel, TargetPlaceholder, TargetText, TargetTitle:
		if strings.TrimSpace(rest) == "" {
			return Target{}, fmt.Errorf("target %q: %s is empty", raw, prefix)
		}
		return Target{Kind: prefix, Value: rest}, nil
	default:
		// CSS pseudo-classes such as a:hover or input:checked.
		return Target{Kind: TargetCSS, Value: raw}, nil
	}
}

// Locate resolves the target on page.
func (t Target) Locate(page playwright.Page, exact bool) playwright.Locator {
	switch t.Kind {
	case TargetRole:
		opts := playwright.PageGetByRoleOptions{}
		if t.Value != "" {
			opts.Name = t.Value
			opts.Exact = playwright.Bool(exact)
		}
		return page.GetByRole(playwright.AriaRole(t.Role), opts)
	case TargetLabel:
		return page.GetByLabel(t.Value, playwright.PageGetByLabelOptions{Exact: playwright.Bool(exact)})
	case TargetPlaceholder:
		return page.GetByPlaceholder(t.Value, playwright.PageGetByPlaceholderOptions{Exact: playwright.Bool(exact)})
	case TargetText:
		return page.GetByText(t.Value, playwright.PageGetByTextOptions{Exact: playwright.Bool(exact)})
	case TargetTitle:
		return page.GetByTitle(t.Value, playwright.PageGetByTitleOptions{Exact: playwright.Bool(exact)})
	default:
		return page.Locator(t.Value)
	}
}
