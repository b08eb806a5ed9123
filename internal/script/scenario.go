package script

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"walkthrough/internal/services"
)

// Step actions.
const (
	ActionGoto             = "goto"
	ActionClick            = "click"
	ActionFill             = "fill"
	ActionCheck            = "check"
	ActionPress            = "press"
	ActionReload           = "reload"
	ActionNarrate          = "narrate"
	ActionWaitForNarration = "wait_for_narration"
	ActionHighlight        = "highlight"
	ActionPause            = "pause"
	ActionDrag             = "drag"
)

// Scenario is a recorded tour described in YAML.
type Scenario struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Steps []Step `yaml:"steps"`
}

// Step is a single scenario action.
type Step struct {
	Action string `yaml:"action"`
	// Target selects the element acted on.
	Target string `yaml:"target"`
	// Value is the text to fill, the key to press, the URL to open or, for
	// drag, the drop target.
	Value string `yaml:"value"`
	// Text is the narration to speak.
	Text string `yaml:"text"`
	// Wait controls whether a narration blocks the script; it defaults to true.
	Wait *bool `yaml:"wait"`
	// Nth picks one element when the target matches several.
	Nth   *int `yaml:"nth"`
	Exact bool `yaml:"exact"`
	// Timeout bounds the action, or sets the length of a pause or highlight.
	Timeout time.Duration `yaml:"timeout"`
}

// Blocking reports whether a narrate step holds the script.
func (s Step) Blocking() bool {
	return s.Wait == nil || *s.Wait
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "script", "load scenario", path, err)
	}
	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "script", "load scenario", path, err)
	}
	if scenario.Name == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var scenario Scenario
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// Validate checks every step for a known action and its required fields.
func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 && strings.TrimSpace(s.URL) == "" {
		return errors.New("scenario has neither url nor steps")
	}
	var errs []error
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			errs = append(errs, fmt.Errorf("step %d (%s): %w", i+1, step.Action, err))
		}
	}
	return errors.Join(errs...)
}

func (s Step) validate() error {
	needTarget := func() error {
		if strings.TrimSpace(s.Target) == "" {
			return errors.New("target is required")
		}
		_, err := ParseTarget(s.Target)
		return err
	}
	if s.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if s.Nth != nil && *s.Nth < 0 {
		return errors.New("nth must not be negative")
	}
	switch s.Action {
	case ActionGoto:
		if strings.TrimSpace(s.Value) == "" {
			return errors.New("value (url) is required")
		}
	case ActionClick, ActionCheck, ActionHighlight:
		return needTarget()
	case ActionFill:
		return needTarget()
	case ActionPress:
		if strings.TrimSpace(s.Value) == "" {
			return errors.New("value (key) is required")
		}
		return needTarget()
	case ActionDrag:
		if err := needTarget(); err != nil {
			return err
		}
		if strings.TrimSpace(s.Value) == "" {
			return errors.New("value (drop target) is required")
		}
		_, err := ParseTarget(s.Value)
		return err
	case ActionNarrate:
		if strings.TrimSpace(s.Text) == "" {
			return errors.New("text is required")
		}
	case ActionPause:
		if s.Timeout <= 0 {
			return errors.New("timeout (pause length) is required")
		}
	case ActionReload, ActionWaitForNarration:
	case "":
		return errors.New("action is required")
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
	return nil
}
